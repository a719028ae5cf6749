package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/cluster"
	"github.com/stazcp/ai-news-aggregator-sub000/internal/config"
	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
	transporthttp "github.com/stazcp/ai-news-aggregator-sub000/internal/transport/http"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var cache cluster.Cache = cluster.NewMemoryCache()
	if cfg.RedisAddr != "" {
		cache = cluster.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Printf("memo cache backed by redis at %s", cfg.RedisAddr)
	}

	var chatClient llm.ChatClient
	if cfg.GroqAPIKey != "" {
		chatClient = llm.NewClient(cfg.GroqAPIKey)
		log.Printf("LLM refinement enabled with model %s", cfg.GroqModel)
	} else {
		log.Printf("no API key configured, running heuristic-only pipeline")
	}

	opts := cluster.DefaultOptions()
	opts.Seed.Threshold = cfg.SeedThreshold
	opts.Refine.ChunkSize = cfg.ChunkSize
	opts.Refine.Pacing = cfg.PacingDelay
	opts.IDMergeThreshold = cfg.IDMergeThreshold
	opts.TitleMergeThreshold = cfg.TitleMergeThreshold
	opts.EntityMerge.MinCoherence = cfg.MinCoherence
	opts.Split.Threshold = cfg.SplitThreshold
	opts.Expand.SimThreshold = cfg.ExpandThreshold
	opts.Enrich.PerDomainCap = cfg.PerDomainCap
	opts.Enrich.DisplayCap = cfg.DisplayCap
	opts.ExpandEnabled = cfg.ExpansionEnabled
	opts.SemanticMergeEnabled = cfg.SemanticMergeEnabled
	opts.SeverityLLM = cfg.SeverityLLMEnabled
	opts.CacheTTL = cfg.CacheTTL

	pipeline := cluster.NewPipeline(opts, chatClient, cache, cluster.LLMSettings{
		Model:          cfg.GroqModel,
		Temperature:    cfg.LLMTemperature,
		MaxTokens:      cfg.LLMMaxTokens,
		MaxConcurrent:  cfg.MaxConcurrent,
		MaxRetries:     cfg.RetryMax,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})

	store := cluster.NewArticleStore()
	if cfg.SeedArticlesPath != "" {
		raw, err := os.ReadFile(cfg.SeedArticlesPath)
		if err != nil {
			log.Fatalf("read seed articles: %v", err)
		}
		articles, err := cluster.DecodeArticles(raw)
		if err != nil {
			log.Fatalf("decode seed articles: %v", err)
		}
		store.AddAll(articles)
		log.Printf("loaded %d seed articles from %s", len(articles), cfg.SeedArticlesPath)
	}

	server := transporthttp.NewServer(pipeline, cfg, store)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      withLogging(withCORS(server.Routes())),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("aggregator API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("signal received: %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
