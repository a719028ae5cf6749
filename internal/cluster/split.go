package cluster

import "log"

// splitIncoherentClusters re-clusters each cluster's own members at a higher
// similarity threshold. A cluster that fractures into tighter sub-clusters
// was holding unrelated stories together; the sub-clusters replace it. When
// the re-run yields nothing usable, the original survives only if it still
// meets the minimum size.
func splitIncoherentClusters(clusters []StoryCluster, articles []Article, opts SeedOptions) []StoryCluster {
	index := articleIndex(articles)

	out := make([]StoryCluster, 0, len(clusters))
	for _, c := range clusters {
		members := resolveArticles(c.ArticleIDs, index)
		if len(members) < opts.MinSize {
			continue
		}

		subVec := NewVectorizer(members)
		subs := preclusterArticles(members, subVec, opts)

		switch {
		case len(subs) > 1:
			log.Printf("split: %q broke into %d sub-clusters", c.Title, len(subs))
			out = append(out, subs...)
		case len(subs) == 1:
			// Coherent enough; keep the original title over the
			// representative's.
			subs[0].Title = c.Title
			out = append(out, subs[0])
		default:
			if len(c.ArticleIDs) >= opts.MinSize {
				out = append(out, c)
			}
		}
	}
	return out
}
