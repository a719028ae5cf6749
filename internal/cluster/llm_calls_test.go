package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
)

type fakeChatClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeChatClient) ChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	choice := llm.Choice{}
	choice.Message.Content = f.response
	return &llm.ChatCompletionResponse{Choices: []llm.Choice{choice}}, nil
}

func newTestCalls(fake *fakeChatClient, cache Cache) *externalCalls {
	return &externalCalls{
		client:      fake,
		gate:        NewCallGate(1, 1, time.Millisecond),
		cache:       cache,
		model:       "test-model",
		temperature: 0.2,
		maxTokens:   512,
		cacheTTL:    time.Minute,
	}
}

func TestRefineUsesResponse(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := fedArticles(base)[:2]

	fake := &fakeChatClient{response: `{
		"clusters": [
			{"clusterTitle": "Fed raises interest rates", "articleIds": ["fed1", "fed2"]}
		]
	}`}
	calls := newTestCalls(fake, nil)

	clusters, err := calls.refine(context.Background(), articles)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Title != "Fed raises interest rates" {
		t.Errorf("unexpected title: %q", clusters[0].Title)
	}
	if len(clusters[0].ArticleIDs) != 2 {
		t.Errorf("unexpected members: %v", clusters[0].ArticleIDs)
	}
}

func TestRefineDropsUnknownAndTinyClusters(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := fedArticles(base)[:2]

	fake := &fakeChatClient{response: `{
		"clusters": [
			{"clusterTitle": "Invented", "articleIds": ["fed1", "ghost"]},
			{"clusterTitle": "", "articleIds": ["fed1", "fed2"]}
		]
	}`}
	calls := newTestCalls(fake, nil)

	clusters, err := calls.refine(context.Background(), articles)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected invented ids and untitled clusters to be dropped, got %+v", clusters)
	}
}

func TestRefineTreatsMalformedAsEmpty(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	fake := &fakeChatClient{response: "I could not produce JSON, sorry"}
	calls := newTestCalls(fake, nil)

	clusters, err := calls.refine(context.Background(), fedArticles(base)[:2])
	if err != nil {
		t.Fatalf("malformed response should degrade, got error %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected empty result, got %+v", clusters)
	}
}

func TestRefineMemoizesResults(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	articles := fedArticles(base)[:2]

	fake := &fakeChatClient{response: `{"clusters": [{"clusterTitle": "Fed rates", "articleIds": ["fed1", "fed2"]}]}`}
	calls := newTestCalls(fake, NewMemoryCache())

	if _, err := calls.refine(context.Background(), articles); err != nil {
		t.Fatalf("first refine: %v", err)
	}
	if _, err := calls.refine(context.Background(), articles); err != nil {
		t.Fatalf("second refine: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected cached second call, upstream saw %d calls", fake.calls)
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	fake := &fakeChatClient{response: `{"summary": "The Fed raised rates by a quarter point."}`}
	calls := newTestCalls(fake, nil)

	summary, err := calls.summarize(context.Background(), "Fed raises rates", fedArticles(base))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary != "The Fed raised rates by a quarter point." {
		t.Errorf("unexpected summary: %q", summary)
	}
}

func TestAssessSeverityClampsLevel(t *testing.T) {
	fake := &fakeChatClient{response: `{"level": 9, "label": "", "reasons": null}`}
	calls := newTestCalls(fake, nil)

	sev, err := calls.assessSeverity(context.Background(), StoryCluster{Title: "Something", ArticleIDs: []string{"a1"}})
	if err != nil {
		t.Fatalf("assessSeverity: %v", err)
	}
	if sev.Level != 5 {
		t.Errorf("expected level clamped to 5, got %d", sev.Level)
	}
	if sev.Label != "Other" {
		t.Errorf("expected empty label backfilled, got %q", sev.Label)
	}
	if sev.Reasons == nil {
		t.Errorf("expected non-nil reasons")
	}
}

func TestExternalCallsDisabled(t *testing.T) {
	var calls *externalCalls
	if calls.enabled() {
		t.Fatalf("nil receiver should report disabled")
	}
	if (&externalCalls{}).enabled() {
		t.Fatalf("missing client should report disabled")
	}
}
