package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
)

// externalCalls wraps every operation routed to the external model: cluster
// refinement, summarization, severity assessment, and semantic merging. All
// calls go through the gate and are memoized in the cache.
type externalCalls struct {
	client      llm.ChatClient
	gate        *CallGate
	cache       Cache
	model       string
	temperature float64
	maxTokens   int
	cacheTTL    time.Duration
}

func (x *externalCalls) enabled() bool {
	return x != nil && x.client != nil
}

func (x *externalCalls) complete(ctx context.Context, system, user string) (string, error) {
	var content string
	err := x.gate.Do(ctx, func(ctx context.Context) error {
		resp, err := x.client.ChatCompletion(ctx, llm.ChatCompletionRequest{
			Model:       x.model,
			Temperature: x.temperature,
			MaxTokens:   x.maxTokens,
			Messages: []llm.Message{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("response missing choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

type refineArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
}

type refinedCluster struct {
	ClusterTitle string   `json:"clusterTitle"`
	ArticleIDs   []string `json:"articleIds"`
}

const refineSystemPrompt = "You are a news editor who groups articles describing the same real-world event into named story clusters. Respond STRICTLY with valid JSON."

// refine asks the model to group a batch of articles into named clusters.
// Malformed responses degrade to an empty result; rate limits and transport
// errors propagate for the caller to classify.
func (x *externalCalls) refine(ctx context.Context, articles []Article) ([]StoryCluster, error) {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	key := fingerprint("refine", ids)

	if x.cache != nil {
		if cached, ok := x.cache.Get(ctx, key); ok {
			var clusters []StoryCluster
			if err := json.Unmarshal([]byte(cached), &clusters); err == nil {
				return clusters, nil
			}
		}
	}

	payload := make([]refineArticle, 0, len(articles))
	for _, a := range articles {
		payload = append(payload, refineArticle{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			PublishedAt: a.PublishedAt.UTC(),
			Source:      a.Source.Name,
			Category:    a.Category,
		})
	}
	articlesJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("refine: marshal payload: %w", err)
	}

	user := fmt.Sprintf(`Group the following articles into story clusters.
Rules:
- A cluster contains articles about the SAME real-world event, not merely the same topic.
- Only return clusters with at least 2 article ids.
- Give each cluster a short, specific title.
- Never invent article ids.

Respond with JSON using this schema:
{"clusters": [{"clusterTitle": "...", "articleIds": ["id_a", "id_b"]}]}

Articles:
%s`, string(articlesJSON))

	content, err := x.complete(ctx, refineSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Clusters []refinedCluster `json:"clusters"`
	}
	if err := decodeCall("refine", content, &decoded); err != nil {
		log.Printf("refine: %v (treating as empty)", err)
		return nil, nil
	}

	known := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		known[a.ID] = struct{}{}
	}

	clusters := make([]StoryCluster, 0, len(decoded.Clusters))
	for _, rc := range decoded.Clusters {
		cluster := StoryCluster{Title: strings.TrimSpace(rc.ClusterTitle)}
		for _, id := range rc.ArticleIDs {
			if _, ok := known[id]; ok {
				cluster.addID(id)
			}
		}
		if len(cluster.ArticleIDs) < 2 || cluster.Title == "" {
			continue
		}
		clusters = append(clusters, cluster)
	}

	if x.cache != nil {
		if data, err := json.Marshal(clusters); err == nil {
			x.cache.Set(ctx, key, string(data), x.cacheTTL)
		}
	}
	return clusters, nil
}

const summarizeSystemPrompt = "You are a news editor who writes tight, neutral story summaries. Respond STRICTLY with valid JSON."

// summarize produces a 2-3 sentence synthesis for a cluster's articles.
func (x *externalCalls) summarize(ctx context.Context, title string, articles []Article) (string, error) {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	key := fingerprint("summary", ids)

	if x.cache != nil {
		if cached, ok := x.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	var sb strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", a.Title, a.Source.Name, a.Description)
	}

	user := fmt.Sprintf(`Write a 2-3 sentence summary of the story %q based on this coverage:
%s
Respond with JSON: {"summary": "..."}`, title, sb.String())

	content, err := x.complete(ctx, summarizeSystemPrompt, user)
	if err != nil {
		return "", err
	}

	var decoded struct {
		Summary string `json:"summary"`
	}
	if err := decodeCall("summarize", content, &decoded); err != nil {
		log.Printf("summarize: %v (leaving summary empty)", err)
		return "", nil
	}
	summary := strings.TrimSpace(decoded.Summary)

	if x.cache != nil && summary != "" {
		x.cache.Set(ctx, key, summary, x.cacheTTL)
	}
	return summary, nil
}

const severitySystemPrompt = "You assess how consequential a news story is on a 0-5 scale (5 = armed conflict, 4 = mass casualties, 3 = national politics, 2 = economy and markets, 1 = tech and business, 0 = other). Respond STRICTLY with valid JSON."

// assessSeverity asks the model for a severity judgment. A zero result tells
// the caller to fall back to the rule-based path.
func (x *externalCalls) assessSeverity(ctx context.Context, c StoryCluster) (Severity, error) {
	key := fingerprint("severity", c.ArticleIDs)

	if x.cache != nil {
		if cached, ok := x.cache.Get(ctx, key); ok {
			var sev Severity
			if err := json.Unmarshal([]byte(cached), &sev); err == nil {
				return sev, nil
			}
		}
	}

	var sb strings.Builder
	for i, a := range c.Articles {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "- %s\n", a.Title)
	}

	user := fmt.Sprintf(`Story: %q
Headlines:
%s
Respond with JSON: {"level": 0, "label": "...", "reasons": ["..."]}`, c.Title, sb.String())

	content, err := x.complete(ctx, severitySystemPrompt, user)
	if err != nil {
		return UnknownSeverity(), err
	}

	var decoded Severity
	if err := decodeCall("severity", content, &decoded); err != nil {
		log.Printf("severity: %v (falling back to rules)", err)
		return UnknownSeverity(), nil
	}
	if decoded.Level < 0 {
		decoded.Level = 0
	}
	if decoded.Level > 5 {
		decoded.Level = 5
	}
	if decoded.Label == "" {
		decoded.Label = "Other"
	}
	if decoded.Reasons == nil {
		decoded.Reasons = []string{}
	}

	if x.cache != nil {
		if data, err := json.Marshal(decoded); err == nil {
			x.cache.Set(ctx, key, string(data), x.cacheTTL)
		}
	}
	return decoded, nil
}

type clusterBrief struct {
	Index  int      `json:"index"`
	Title  string   `json:"title"`
	Sample []string `json:"sampleTitles"`
}

type mergeGroup struct {
	Title   string `json:"title"`
	Indices []int  `json:"indices"`
}

const mergeSystemPrompt = "You decide which story clusters describe the same real-world event. Respond STRICTLY with valid JSON."

// mergeSimilar asks the model to point out clusters that should be combined.
func (x *externalCalls) mergeSimilar(ctx context.Context, briefs []clusterBrief) ([]mergeGroup, error) {
	briefsJSON, err := json.Marshal(briefs)
	if err != nil {
		return nil, fmt.Errorf("merge: marshal briefs: %w", err)
	}

	user := fmt.Sprintf(`These story clusters may overlap. Return groups of indices that describe the SAME event; leave distinct clusters out.

Respond with JSON: {"groups": [{"title": "...", "indices": [0, 3]}]}

Clusters:
%s`, string(briefsJSON))

	content, err := x.complete(ctx, mergeSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Groups []mergeGroup `json:"groups"`
	}
	if err := decodeCall("merge", content, &decoded); err != nil {
		log.Printf("merge: %v (treating as no-op)", err)
		return nil, nil
	}
	return decoded.Groups, nil
}

// sleepBetweenCalls paces sequential chunk submissions to smooth request
// rate against upstream quotas.
func sleepBetweenCalls(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
