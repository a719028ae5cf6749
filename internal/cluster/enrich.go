package cluster

import (
	"net/url"
	"sort"
	"strings"
)

// EnrichOptions tunes member dedup, per-domain capping, and image selection.
type EnrichOptions struct {
	PerDomainCap   int
	DisplayCap     int
	MaxImages      int
	MinImageWidth  int
	MinImageHeight int
}

// enrichCluster resolves a cluster's article IDs, removes duplicate
// coverage, caps per-domain representation, and attaches display images.
// Returns false when fewer than two distinct articles survive.
func enrichCluster(c StoryCluster, index map[string]Article, opts EnrichOptions) (StoryCluster, bool) {
	resolved := resolveArticles(c.ArticleIDs, index)
	deduped := dedupeArticles(resolved)
	if len(deduped) < 2 {
		return c, false
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		iImg := hasRealImage(deduped[i])
		jImg := hasRealImage(deduped[j])
		if iImg != jImg {
			return iImg
		}
		return deduped[i].PublishedAt.After(deduped[j].PublishedAt)
	})

	capped := capPerDomain(deduped, opts.PerDomainCap, opts.DisplayCap)
	if len(capped) < 2 {
		return c, false
	}

	images := collectImages(capped, opts)
	if len(images) == 0 {
		// Nothing displayable among capped members; fall back to the
		// pre-cap set.
		images = collectImages(deduped, opts)
	}

	c.Articles = capped
	c.ArticleIDs = make([]string, len(capped))
	for i, a := range capped {
		c.ArticleIDs[i] = a.ID
	}
	c.ImageURLs = images
	return c, true
}

// dedupeArticles drops same-story duplicates: first by canonical URL
// (origin+path, ignoring query and fragment), then by (host, lowercased
// title) to catch same-outlet reposts behind distinct tracking URLs.
func dedupeArticles(articles []Article) []Article {
	seenURL := make(map[string]struct{}, len(articles))
	seenHostTitle := make(map[string]struct{}, len(articles))

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		canonical := canonicalURL(a.URL)
		if _, ok := seenURL[canonical]; ok {
			continue
		}
		hostTitle := articleDomain(a) + "|" + strings.ToLower(strings.TrimSpace(a.Title))
		if _, ok := seenHostTitle[hostTitle]; ok {
			continue
		}
		seenURL[canonical] = struct{}{}
		seenHostTitle[hostTitle] = struct{}{}
		out = append(out, a)
	}
	return out
}

// capPerDomain walks articles in their sorted order, keeping at most
// perDomain entries per outlet and at most total entries overall.
func capPerDomain(articles []Article, perDomain, total int) []Article {
	if perDomain <= 0 {
		perDomain = 2
	}
	if total <= 0 {
		total = 20
	}

	counts := make(map[string]int)
	out := make([]Article, 0, total)
	for _, a := range articles {
		if len(out) >= total {
			break
		}
		domain := articleDomain(a)
		if counts[domain] >= perDomain {
			continue
		}
		counts[domain]++
		out = append(out, a)
	}
	return out
}

// collectImages gathers up to MaxImages deduplicated image URLs, preferring
// real images that meet the minimum dimensions.
func collectImages(articles []Article, opts EnrichOptions) []string {
	maxImages := opts.MaxImages
	if maxImages <= 0 {
		maxImages = 4
	}

	seen := make(map[string]struct{})
	var images []string
	for _, a := range articles {
		if len(images) >= maxImages {
			break
		}
		if !hasRealImage(a) {
			continue
		}
		if opts.MinImageWidth > 0 && a.ImageWidth > 0 && a.ImageWidth < opts.MinImageWidth {
			continue
		}
		if opts.MinImageHeight > 0 && a.ImageHeight > 0 && a.ImageHeight < opts.MinImageHeight {
			continue
		}
		if _, ok := seen[a.URLToImage]; ok {
			continue
		}
		seen[a.URLToImage] = struct{}{}
		images = append(images, a.URLToImage)
	}
	return images
}

var placeholderHints = []string{"placeholder", "default-image", "no-image", "missing"}

func hasRealImage(a Article) bool {
	img := strings.ToLower(a.URLToImage)
	if strings.TrimSpace(img) == "" {
		return false
	}
	for _, hint := range placeholderHints {
		if strings.Contains(img, hint) {
			return false
		}
	}
	return true
}

// canonicalURL reduces a URL to origin+path so tracking parameters and
// fragments do not defeat dedup.
func canonicalURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host + parsed.Path)
}

// articleDomain resolves the outlet host, preferring the article URL and
// falling back to the source name.
func articleDomain(a Article) string {
	if parsed, err := url.Parse(a.URL); err == nil && parsed.Host != "" {
		return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	}
	return strings.ToLower(strings.TrimSpace(a.Source.Name))
}
