package cluster

import (
	"context"
	"log"

	"gonum.org/v1/gonum/stat"
)

// EntityMergeOptions tunes the entity-sharing merge pass.
type EntityMergeOptions struct {
	MinSharedEntities int
	MinEntityLength   int
	MinCoherence      float64
	MaxTitles         int
	MaxSampledPairs   int
}

// mergeClustersByIDs combines clusters whose member sets overlap strongly
// (Jaccard similarity of articleIds at or above threshold). The survivor
// keeps the longer title and the exact union of both member sets. O(n²)
// over the refined-cluster count, which stays small.
func mergeClustersByIDs(clusters []StoryCluster, threshold float64) []StoryCluster {
	merged := make([]bool, len(clusters))
	out := make([]StoryCluster, 0, len(clusters))

	for i := range clusters {
		if merged[i] {
			continue
		}
		base := clusters[i]
		for j := i + 1; j < len(clusters); j++ {
			if merged[j] {
				continue
			}
			if jaccardStrings(base.ArticleIDs, clusters[j].ArticleIDs) >= threshold {
				if len(clusters[j].Title) > len(base.Title) {
					base.Title = clusters[j].Title
				}
				base.unionIDs(clusters[j])
				merged[j] = true
			}
		}
		out = append(out, base)
	}
	return out
}

// mergeClustersByTitle combines clusters whose titles share most of their
// meaningful words. Titles are short, so the threshold is tighter than the
// ID-overlap pass: near-identical wording implies the same event.
func mergeClustersByTitle(clusters []StoryCluster, threshold float64) []StoryCluster {
	tokens := make([][]string, len(clusters))
	for i, c := range clusters {
		tokens[i] = tokenizeText(c.Title)
	}

	merged := make([]bool, len(clusters))
	out := make([]StoryCluster, 0, len(clusters))

	for i := range clusters {
		if merged[i] {
			continue
		}
		base := clusters[i]
		for j := i + 1; j < len(clusters); j++ {
			if merged[j] {
				continue
			}
			if jaccardStrings(tokens[i], tokens[j]) >= threshold {
				if len(clusters[j].Title) > len(base.Title) {
					base.Title = clusters[j].Title
				}
				base.unionIDs(clusters[j])
				merged[j] = true
			}
		}
		out = append(out, base)
	}
	return out
}

// mergeClustersByEntity combines clusters that share named entities, gated
// by the average cosine similarity of sampled cross-cluster article pairs.
//
// Each cluster's entity set is computed once up front and never re-unioned
// after a merge within the pass. Without that freeze, cluster A absorbing B
// would inherit B's entities and could then absorb an unrelated C through
// entities B brought in (a snowball merge).
func mergeClustersByEntity(clusters []StoryCluster, articles []Article, opts EntityMergeOptions) []StoryCluster {
	if len(clusters) < 2 {
		return clusters
	}

	index := articleIndex(articles)
	vec := NewVectorizer(articles)

	entitySets := make([]entitySet, len(clusters))
	for i, c := range clusters {
		entitySets[i] = clusterEntities(c, index, opts.MaxTitles)
	}

	merged := make([]bool, len(clusters))
	out := make([]StoryCluster, 0, len(clusters))

	for i := range clusters {
		if merged[i] {
			continue
		}
		base := clusters[i]
		for j := i + 1; j < len(clusters); j++ {
			if merged[j] {
				continue
			}
			shared := entitySets[i].sharedCount(entitySets[j], opts.MinEntityLength)
			if shared < opts.MinSharedEntities {
				continue
			}
			coherence := averageCrossSimilarity(vec, base.ArticleIDs, clusters[j].ArticleIDs, opts.MaxSampledPairs)
			if coherence < opts.MinCoherence {
				continue
			}
			if len(clusters[j].Title) > len(base.Title) {
				base.Title = clusters[j].Title
			}
			base.unionIDs(clusters[j])
			merged[j] = true
		}
		out = append(out, base)
	}
	return out
}

// averageCrossSimilarity samples up to maxPairs article pairs across two
// clusters and returns their mean cosine similarity.
func averageCrossSimilarity(vec *Vectorizer, aIDs, bIDs []string, maxPairs int) float64 {
	if maxPairs <= 0 {
		maxPairs = 20
	}
	sims := make([]float64, 0, maxPairs)
	for _, a := range aIDs {
		for _, b := range bIDs {
			sims = append(sims, vec.Similarity(a, b))
			if len(sims) >= maxPairs {
				return stat.Mean(sims, nil)
			}
		}
	}
	if len(sims) == 0 {
		return 0
	}
	return stat.Mean(sims, nil)
}

// semanticMerge asks the external model which clusters describe the same
// event and applies its groupings. Errors are non-fatal: the caller keeps
// the pre-merge clusters.
func semanticMerge(ctx context.Context, calls *externalCalls, clusters []StoryCluster, articles []Article) ([]StoryCluster, error) {
	if !calls.enabled() || len(clusters) < 2 {
		return clusters, nil
	}

	index := articleIndex(articles)
	briefs := make([]clusterBrief, len(clusters))
	for i, c := range clusters {
		brief := clusterBrief{Index: i, Title: c.Title}
		for _, id := range c.ArticleIDs {
			if len(brief.Sample) >= 3 {
				break
			}
			if article, ok := index[id]; ok {
				brief.Sample = append(brief.Sample, article.Title)
			}
		}
		briefs[i] = brief
	}

	groups, err := calls.mergeSimilar(ctx, briefs)
	if err != nil {
		return clusters, err
	}

	consumed := make([]bool, len(clusters))
	var out []StoryCluster
	for _, group := range groups {
		var combined *StoryCluster
		for _, idx := range group.Indices {
			if idx < 0 || idx >= len(clusters) || consumed[idx] {
				continue
			}
			consumed[idx] = true
			if combined == nil {
				c := clusters[idx]
				combined = &c
				continue
			}
			combined.unionIDs(clusters[idx])
		}
		if combined == nil {
			continue
		}
		if group.Title != "" {
			combined.Title = group.Title
		}
		out = append(out, *combined)
	}
	for i, c := range clusters {
		if !consumed[i] {
			out = append(out, c)
		}
	}
	if len(groups) > 0 {
		log.Printf("semantic merge: %d clusters -> %d", len(clusters), len(out))
	}
	return out, nil
}

// jaccardStrings computes intersection-over-union of two string slices
// treated as sets.
func jaccardStrings(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
