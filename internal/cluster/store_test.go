package cluster

import (
	"testing"
	"time"
)

func TestArticleStoreBackfillsAndReplaces(t *testing.T) {
	store := NewArticleStore()

	stored := store.Add(Article{Title: "No id yet", URL: "https://example.com/1"})
	if stored.ID == "" {
		t.Fatalf("expected generated id")
	}
	if stored.PublishedAt.IsZero() {
		t.Fatalf("expected backfilled timestamp")
	}

	updated := store.Add(Article{ID: stored.ID, Title: "Edited title", URL: "https://example.com/1", PublishedAt: stored.PublishedAt})
	if updated.Title != "Edited title" {
		t.Fatalf("expected replacement, got %q", updated.Title)
	}

	recent := store.Recent(time.Now().UTC(), time.Hour)
	if len(recent) != 1 {
		t.Fatalf("expected one stored article, got %d", len(recent))
	}
}

func TestArticleStoreRecentWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	store := NewArticleStore()
	store.AddAll([]Article{
		{ID: "old", Title: "Old", URL: "https://example.com/old", PublishedAt: now.Add(-72 * time.Hour)},
		{ID: "mid", Title: "Mid", URL: "https://example.com/mid", PublishedAt: now.Add(-10 * time.Hour)},
		{ID: "new", Title: "New", URL: "https://example.com/new", PublishedAt: now.Add(-1 * time.Hour)},
		{ID: "future", Title: "Future", URL: "https://example.com/future", PublishedAt: now.Add(2 * time.Hour)},
	})

	recent := store.Recent(now, 24*time.Hour)
	if len(recent) != 2 {
		t.Fatalf("expected 2 articles in window, got %+v", recent)
	}
	if recent[0].ID != "new" || recent[1].ID != "mid" {
		t.Errorf("expected newest-first ordering, got %s, %s", recent[0].ID, recent[1].ID)
	}
}

func TestArticleStorePrune(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	store := NewArticleStore()
	store.AddAll([]Article{
		{ID: "old", Title: "Old", URL: "https://example.com/old", PublishedAt: now.Add(-72 * time.Hour)},
		{ID: "new", Title: "New", URL: "https://example.com/new", PublishedAt: now},
	})

	if removed := store.PruneOlderThan(now.Add(-24 * time.Hour)); removed != 1 {
		t.Fatalf("expected 1 pruned article, got %d", removed)
	}
	if recent := store.Recent(now, 24*time.Hour); len(recent) != 1 || recent[0].ID != "new" {
		t.Fatalf("unexpected survivors: %+v", recent)
	}
}
