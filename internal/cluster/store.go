package cluster

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ArticleStore keeps articles submitted via the API in memory for the
// current process.
type ArticleStore struct {
	mu       sync.RWMutex
	articles []Article
}

// NewArticleStore constructs an empty store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{}
}

// Add registers an article, backfilling an ID and timestamp when missing.
// An existing article with the same ID is replaced.
func (s *ArticleStore) Add(article Article) Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.PublishedAt.IsZero() {
		article.PublishedAt = time.Now().UTC()
	}

	for idx := range s.articles {
		if s.articles[idx].ID == article.ID {
			s.articles[idx] = article
			return s.articles[idx]
		}
	}

	s.articles = append(s.articles, article)
	return article
}

// AddAll registers a batch of articles.
func (s *ArticleStore) AddAll(articles []Article) {
	for _, a := range articles {
		s.Add(a)
	}
}

// Recent returns articles published within the window ending now, newest
// first.
func (s *ArticleStore) Recent(now time.Time, window time.Duration) []Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.Add(-window)
	out := make([]Article, 0, len(s.articles))
	for _, a := range s.articles {
		if a.PublishedAt.Before(cutoff) || a.PublishedAt.After(now) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// PruneOlderThan drops articles published before ts and returns how many
// were removed.
func (s *ArticleStore) PruneOlderThan(ts time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.articles) == 0 {
		return 0
	}

	filtered := s.articles[:0]
	removed := 0
	for _, a := range s.articles {
		if a.PublishedAt.Before(ts) {
			removed++
			continue
		}
		filtered = append(filtered, a)
	}
	s.articles = filtered
	return removed
}
