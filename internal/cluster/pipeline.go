package cluster

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
)

// Stage names the orchestrator's states, in pipeline order.
type Stage string

const (
	StageIdle          Stage = "idle"
	StagePreclustering Stage = "preclustering"
	StageRefining      Stage = "refining"
	StageMerging       Stage = "merging"
	StageSplitting     Stage = "splitting"
	StageSemanticMerge Stage = "semantic_merge"
	StageExpansion     Stage = "expansion"
	StageEnriching     Stage = "enriching"
	StageScoring       Stage = "scoring"
	StageSorted        Stage = "sorted"
	StageRateLimited   Stage = "rate_limited"
	StageFailed        Stage = "failed"
)

// Options collects every pipeline tunable in one place instead of scattered
// environment lookups.
type Options struct {
	Seed                 SeedOptions
	Refine               RefineOptions
	IDMergeThreshold     float64
	TitleMergeThreshold  float64
	EntityMerge          EntityMergeOptions
	Split                SeedOptions
	Expand               ExpandOptions
	ExpandEnabled        bool
	SemanticMergeEnabled bool
	SeverityLLM          bool
	Enrich               EnrichOptions
	Rank                 RankWeights
	SummaryEnabled       bool
	CacheTTL             time.Duration
}

// DefaultOptions returns the standard pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Seed:                SeedOptions{Threshold: 0.30, MinSize: 2, MaxGroup: 40},
		Refine:              RefineOptions{ChunkSize: 25, ChunkOverlap: 5, RecoveryChunk: 40, Pacing: 800 * time.Millisecond},
		IDMergeThreshold:    0.45,
		TitleMergeThreshold: 0.72,
		EntityMerge: EntityMergeOptions{
			MinSharedEntities: 1,
			MinEntityLength:   4,
			MinCoherence:      0.12,
			MaxTitles:         10,
			MaxSampledPairs:   20,
		},
		Split: SeedOptions{Threshold: 0.52, MinSize: 2, MaxGroup: 40},
		Expand: ExpandOptions{
			SimThreshold:   0.44,
			MaxAdd:         30,
			RecencyWindow:  96 * time.Hour,
			CategoryStrict: true,
		},
		ExpandEnabled:        false,
		SemanticMergeEnabled: false,
		SeverityLLM:          false,
		Enrich: EnrichOptions{
			PerDomainCap:   2,
			DisplayCap:     20,
			MaxImages:      4,
			MinImageWidth:  200,
			MinImageHeight: 150,
		},
		Rank:           DefaultRankWeights(),
		SummaryEnabled: true,
		CacheTTL:       time.Hour,
	}
}

// LLMSettings configure the external model and its bounded client.
type LLMSettings struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	MaxConcurrent  int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Pipeline clusters, merges, enriches, and ranks batches of articles.
type Pipeline struct {
	opts  Options
	calls *externalCalls
	now   func() time.Time
}

// NewPipeline constructs a pipeline. A nil client disables every external
// call: refinement degrades to the deterministic seeds, severity to the rule
// set, and summaries are skipped.
func NewPipeline(opts Options, client llm.ChatClient, cache Cache, settings LLMSettings) *Pipeline {
	calls := &externalCalls{
		client:      client,
		gate:        NewCallGate(settings.MaxConcurrent, settings.MaxRetries, settings.RetryBaseDelay),
		cache:       cache,
		model:       settings.Model,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxTokens,
		cacheTTL:    opts.CacheTTL,
	}
	return &Pipeline{opts: opts, calls: calls, now: time.Now}
}

// Run executes the whole pipeline over one batch of articles.
//
// Terminal outcomes: a ranked cluster list (rateLimited=false); an empty
// list with rateLimited=true when any stage hit the upstream quota, so the
// caller can show ungrouped articles instead; or an error for anything
// unexpected. Failures inside the optional semantic-merge and expansion
// stages are caught locally and fall back to the pre-stage result.
func (p *Pipeline) Run(ctx context.Context, articles []Article) (Result, error) {
	if len(articles) == 0 {
		return Result{Clusters: []StoryCluster{}}, nil
	}

	stage := StagePreclustering
	log.Printf("pipeline: %s over %d articles", stage, len(articles))
	vec := NewVectorizer(articles)
	seeds := preclusterArticles(articles, vec, p.opts.Seed)

	stage = StageRefining
	log.Printf("pipeline: %s %d seed groups", stage, len(seeds))
	clusters, err := refineSeeds(ctx, p.calls, seeds, articles, p.opts.Refine)
	if err != nil {
		if IsRateLimited(err) {
			log.Printf("pipeline: %s -> %s: %v", stage, StageRateLimited, err)
			return Result{Clusters: []StoryCluster{}, RateLimited: true}, nil
		}
		return Result{}, fmt.Errorf("%s: %w", stage, err)
	}

	stage = StageMerging
	clusters = mergeClustersByIDs(clusters, p.opts.IDMergeThreshold)
	clusters = mergeClustersByTitle(clusters, p.opts.TitleMergeThreshold)
	clusters = mergeClustersByEntity(clusters, articles, p.opts.EntityMerge)
	log.Printf("pipeline: %s left %d clusters", stage, len(clusters))

	stage = StageSplitting
	clusters = splitIncoherentClusters(clusters, articles, p.opts.Split)
	clusters = mergeClustersByTitle(clusters, p.opts.TitleMergeThreshold)
	log.Printf("pipeline: %s left %d clusters", stage, len(clusters))

	if p.opts.SemanticMergeEnabled {
		stage = StageSemanticMerge
		if mergedClusters, mergeErr := semanticMerge(ctx, p.calls, clusters, articles); mergeErr != nil {
			log.Printf("pipeline: %s failed, keeping pre-stage clusters: %v", stage, mergeErr)
		} else {
			clusters = mergedClusters
		}
	}

	if p.opts.ExpandEnabled {
		stage = StageExpansion
		for i := range clusters {
			clusters[i] = expandCluster(clusters[i], articles, vec, p.opts.Expand)
		}
	}

	stage = StageEnriching
	index := articleIndex(articles)
	enriched := make([]StoryCluster, 0, len(clusters))
	for _, c := range clusters {
		if len(c.ArticleIDs) < 2 {
			continue
		}
		ec, ok := enrichCluster(c, index, p.opts.Enrich)
		if !ok {
			continue
		}
		if p.opts.SummaryEnabled && p.calls.enabled() {
			summary, sumErr := p.calls.summarize(ctx, ec.Title, ec.Articles)
			if sumErr != nil {
				if IsRateLimited(sumErr) {
					log.Printf("pipeline: %s -> %s: %v", stage, StageRateLimited, sumErr)
					return Result{Clusters: []StoryCluster{}, RateLimited: true}, nil
				}
				log.Printf("pipeline: summary for %q failed, skipping: %v", ec.Title, sumErr)
			} else {
				ec.Summary = summary
			}
		}
		enriched = append(enriched, ec)
	}

	stage = StageScoring
	now := p.now()
	for i := range enriched {
		sev := assessClusterSeverity(ctx, p.calls, enriched[i], p.opts.SeverityLLM)
		enriched[i].Severity = &sev
		enriched[i].Score = rankScore(enriched[i], now, p.opts.Rank)
	}
	sortClustersByScore(enriched)

	stage = StageSorted
	log.Printf("pipeline: %s, returning %d clusters", stage, len(enriched))
	return Result{Clusters: enriched}, nil
}
