package cluster

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RefineOptions tunes how seed groups are submitted to the external model.
type RefineOptions struct {
	ChunkSize     int
	ChunkOverlap  int
	RecoveryChunk int
	Pacing        time.Duration
}

// refineSeeds turns pre-clustered seed groups into named story clusters via
// the external model. Oversized seeds are split into overlapping chunks to
// bound call payloads; chunks are submitted sequentially, never fanned out,
// to respect upstream rate limits.
//
// A rate limit during seed refinement is fatal to the stage. Articles left
// uncovered by the returned clusters get one recovery round in larger
// batches; a rate limit there only stops the recovery.
func refineSeeds(ctx context.Context, calls *externalCalls, seeds []StoryCluster, articles []Article, opts RefineOptions) ([]StoryCluster, error) {
	if !calls.enabled() {
		// Heuristic-only mode: the seeds themselves are the clusters.
		return seeds, nil
	}

	index := articleIndex(articles)

	var refined []StoryCluster
	for _, seed := range seeds {
		members := resolveArticles(seed.ArticleIDs, index)
		for _, chunk := range chunkOverlapping(members, opts.ChunkSize, opts.ChunkOverlap) {
			clusters, err := calls.refine(ctx, chunk)
			if err != nil {
				if IsRateLimited(err) {
					return nil, fmt.Errorf("refine seeds: %w", err)
				}
				log.Printf("refine: chunk of %d articles failed, skipping: %v", len(chunk), err)
			} else {
				refined = append(refined, clusters...)
			}
			if err := sleepBetweenCalls(ctx, opts.Pacing); err != nil {
				return nil, err
			}
		}
	}

	refined = append(refined, recoverUncovered(ctx, calls, refined, articles, opts)...)
	return refined, nil
}

// recoverUncovered re-submits articles that no returned cluster references,
// catching stories the seed boundaries may have split apart.
func recoverUncovered(ctx context.Context, calls *externalCalls, refined []StoryCluster, articles []Article, opts RefineOptions) []StoryCluster {
	covered := make(map[string]struct{})
	for _, c := range refined {
		for _, id := range c.ArticleIDs {
			covered[id] = struct{}{}
		}
	}

	var uncovered []Article
	for _, a := range articles {
		if _, ok := covered[a.ID]; !ok {
			uncovered = append(uncovered, a)
		}
	}
	if len(uncovered) < 2 {
		return nil
	}

	var recovered []StoryCluster
	for _, batch := range chunkOverlapping(uncovered, opts.RecoveryChunk, 0) {
		clusters, err := calls.refine(ctx, batch)
		if err != nil {
			if IsRateLimited(err) {
				log.Printf("refine: rate limited during uncovered recovery, keeping %d clusters", len(refined)+len(recovered))
				return recovered
			}
			log.Printf("refine: recovery batch of %d articles failed, skipping: %v", len(batch), err)
			continue
		}
		recovered = append(recovered, clusters...)
		if err := sleepBetweenCalls(ctx, opts.Pacing); err != nil {
			return recovered
		}
	}
	return recovered
}

// chunkOverlapping splits items into chunks of at most size elements with
// overlap shared between consecutive chunks.
func chunkOverlapping(items []Article, size, overlap int) [][]Article {
	if size <= 0 || len(items) <= size {
		if len(items) == 0 {
			return nil
		}
		return [][]Article{items}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	step := size - overlap
	var chunks [][]Article
	for start := 0; start < len(items); start += step {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
		if end == len(items) {
			break
		}
	}
	return chunks
}

func resolveArticles(ids []string, index map[string]Article) []Article {
	resolved := make([]Article, 0, len(ids))
	for _, id := range ids {
		if article, ok := index[id]; ok {
			resolved = append(resolved, article)
		}
	}
	return resolved
}
