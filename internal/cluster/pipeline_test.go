package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
)

func testSettings() LLMSettings {
	return LLMSettings{
		Model:          "test-model",
		MaxConcurrent:  1,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestPipelineHeuristicOnly(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := append(fedArticles(base), Article{
		ID:          "tech1",
		Title:       "Smartphone maker unveils foldable screen device",
		Description: "A gadget company introduced a foldable smartphone with improved battery life",
		URL:         "https://techcrunch.com/foldable",
		PublishedAt: base,
		Source:      Source{Name: "TechCrunch"},
		Category:    "technology",
	})

	opts := DefaultOptions()
	opts.Refine.Pacing = 0
	pipeline := NewPipeline(opts, nil, NewMemoryCache(), testSettings())
	pipeline.now = func() time.Time { return base }

	result, err := pipeline.Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RateLimited {
		t.Fatalf("heuristic-only run must not report rate limiting")
	}
	if len(result.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d: %+v", len(result.Clusters), result.Clusters)
	}

	c := result.Clusters[0]
	if len(c.ArticleIDs) != 3 {
		t.Fatalf("expected the three rate stories grouped, got %v", c.ArticleIDs)
	}
	if c.Severity == nil || c.Severity.Label != "Economy/Markets" {
		t.Errorf("expected rule-based economy severity, got %+v", c.Severity)
	}
	if c.Score <= 0 {
		t.Errorf("expected positive rank score, got %f", c.Score)
	}
	if c.Summary != "" {
		t.Errorf("summary must stay empty without a model, got %q", c.Summary)
	}
}

func TestPipelineRateLimitedTerminal(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := fedArticles(base)

	fake := &fakeChatClient{err: &llm.APIError{StatusCode: 429, Body: "rate_limit_exceeded"}}
	opts := DefaultOptions()
	opts.Refine.Pacing = 0
	pipeline := NewPipeline(opts, fake, NewMemoryCache(), testSettings())

	result, err := pipeline.Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("rate limiting must not surface as an error, got %v", err)
	}
	if !result.RateLimited {
		t.Fatalf("expected rate-limited terminal state")
	}
	if len(result.Clusters) != 0 {
		t.Fatalf("rate-limited result must carry no clusters, got %+v", result.Clusters)
	}
}

func TestPipelineWithModelRefinement(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := fedArticles(base)

	fake := &fakeChatClient{response: `{
		"clusters": [{"clusterTitle": "Fed raises interest rates a quarter point", "articleIds": ["fed1", "fed2", "fed3"]}]
	}`}
	opts := DefaultOptions()
	opts.Refine.Pacing = 0
	opts.SummaryEnabled = false
	pipeline := NewPipeline(opts, fake, NewMemoryCache(), testSettings())
	pipeline.now = func() time.Time { return base }

	result, err := pipeline.Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %+v", result.Clusters)
	}
	if result.Clusters[0].Title != "Fed raises interest rates a quarter point" {
		t.Errorf("expected the refined title, got %q", result.Clusters[0].Title)
	}
	if fake.calls == 0 {
		t.Errorf("expected the model to be consulted")
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	pipeline := NewPipeline(DefaultOptions(), nil, NewMemoryCache(), testSettings())

	result, err := pipeline.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Clusters) != 0 || result.RateLimited {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
