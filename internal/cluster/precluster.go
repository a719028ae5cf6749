package cluster

import "sort"

// SeedOptions tunes the deterministic pre-clustering pass.
type SeedOptions struct {
	Threshold float64
	MinSize   int
	MaxGroup  int
}

type seedGroup struct {
	title    string
	ids      []string
	centroid map[string]float64
}

// preclusterArticles groups articles into seed clusters with a single
// nearest-centroid pass. Articles are visited newest first so the freshest
// coverage anchors each seed; the iteration order is fixed because it
// determines which seed an article joins.
//
// Complexity is O(articles × seeds), not O(n²) pairwise: each article is
// compared against the accumulated centroids only, and the seed count stays
// small in practice.
func preclusterArticles(articles []Article, vec *Vectorizer, opts SeedOptions) []StoryCluster {
	if len(articles) == 0 {
		return nil
	}

	ordered := make([]Article, len(articles))
	copy(ordered, articles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt.After(ordered[j].PublishedAt)
	})

	var seeds []*seedGroup
	for _, article := range ordered {
		weights := vec.Weights(article.ID)

		bestIdx := -1
		bestSim := 0.0
		for idx, seed := range seeds {
			sim := centroidSimilarity(weights, seed.centroid)
			if sim > bestSim {
				bestSim = sim
				bestIdx = idx
			}
		}

		if bestIdx >= 0 && bestSim >= opts.Threshold && len(seeds[bestIdx].ids) < opts.MaxGroup {
			seed := seeds[bestIdx]
			seed.ids = append(seed.ids, article.ID)
			addInto(seed.centroid, weights)
			continue
		}

		centroid := make(map[string]float64, len(weights))
		addInto(centroid, weights)
		seeds = append(seeds, &seedGroup{
			title:    article.Title,
			ids:      []string{article.ID},
			centroid: centroid,
		})
	}

	clusters := make([]StoryCluster, 0, len(seeds))
	for _, seed := range seeds {
		if len(seed.ids) < opts.MinSize {
			continue
		}
		clusters = append(clusters, StoryCluster{
			Title:      seed.title,
			ArticleIDs: seed.ids,
		})
	}
	return clusters
}
