package cluster

import (
	"sort"
	"time"
)

// ExpandOptions tunes cluster expansion toward nearby unclustered articles.
type ExpandOptions struct {
	SimThreshold   float64
	MaxAdd         int
	RecencyWindow  time.Duration
	CategoryStrict bool
}

type expandCandidate struct {
	id  string
	sim float64
}

// expandCluster grows a cluster's membership with non-member articles close
// to its centroid. The vectorizer must span all articles, not just the
// cluster, so candidate weights are comparable. Candidates outside the
// recency window of the cluster's newest member (and, optionally, outside
// its dominant category) are skipped.
func expandCluster(c StoryCluster, articles []Article, vec *Vectorizer, opts ExpandOptions) StoryCluster {
	members := make(map[string]struct{}, len(c.ArticleIDs))
	for _, id := range c.ArticleIDs {
		members[id] = struct{}{}
	}

	index := articleIndex(articles)

	centroid := make(map[string]float64)
	var latest time.Time
	categoryCounts := make(map[string]int)
	for id := range members {
		article, ok := index[id]
		if !ok {
			continue
		}
		addInto(centroid, vec.Weights(id))
		if article.PublishedAt.After(latest) {
			latest = article.PublishedAt
		}
		if article.Category != "" {
			categoryCounts[article.Category]++
		}
	}
	if len(centroid) == 0 {
		return c
	}

	dominant := dominantCategory(categoryCounts)
	cutoff := latest.Add(-opts.RecencyWindow)

	var candidates []expandCandidate
	for _, article := range articles {
		if _, ok := members[article.ID]; ok {
			continue
		}
		if opts.RecencyWindow > 0 && article.PublishedAt.Before(cutoff) {
			continue
		}
		if opts.CategoryStrict && dominant != "" && article.Category != dominant {
			continue
		}
		sim := centroidSimilarity(vec.Weights(article.ID), centroid)
		if sim >= opts.SimThreshold {
			candidates = append(candidates, expandCandidate{id: article.ID, sim: sim})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})
	if opts.MaxAdd > 0 && len(candidates) > opts.MaxAdd {
		candidates = candidates[:opts.MaxAdd]
	}

	for _, candidate := range candidates {
		c.addID(candidate.id)
	}
	return c
}

func dominantCategory(counts map[string]int) string {
	best := ""
	bestCount := 0
	for category, count := range counts {
		if count > bestCount || (count == bestCount && category < best) {
			best = category
			bestCount = count
		}
	}
	return best
}
