package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the aggregator service.
type Config struct {
	ListenAddr       string
	SeedArticlesPath string
	DefaultWindow    time.Duration

	GroqAPIKey     string
	GroqModel      string
	LLMTemperature float64
	LLMMaxTokens   int

	MaxConcurrent  int
	RetryMax       int
	RetryBaseDelay time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	SeedThreshold       float64
	IDMergeThreshold    float64
	TitleMergeThreshold float64
	MinCoherence        float64
	SplitThreshold      float64
	ExpandThreshold     float64
	ChunkSize           int
	PacingDelay         time.Duration
	PerDomainCap        int
	DisplayCap          int

	ExpansionEnabled     bool
	SemanticMergeEnabled bool
	SeverityLLMEnabled   bool
}

// FromEnv creates a configuration instance sourced from environment
// variables (a local .env file is honored when present).
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:           getEnv("AGGREGATOR_LISTEN_ADDR", ":8080"),
		SeedArticlesPath:     getEnv("AGGREGATOR_SEED_ARTICLES", ""),
		DefaultWindow:        48 * time.Hour,
		GroqAPIKey:           getEnv("GROQ_API_KEY", ""),
		GroqModel:            getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature:       0.2,
		LLMMaxTokens:         2048,
		MaxConcurrent:        2,
		RetryMax:             3,
		RetryBaseDelay:       800 * time.Millisecond,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		CacheTTL:             time.Hour,
		SeedThreshold:        0.30,
		IDMergeThreshold:     0.45,
		TitleMergeThreshold:  0.72,
		MinCoherence:         0.12,
		SplitThreshold:       0.52,
		ExpandThreshold:      0.44,
		ChunkSize:            25,
		PacingDelay:          800 * time.Millisecond,
		PerDomainCap:         2,
		DisplayCap:           20,
		ExpansionEnabled:     getBool("AGGREGATOR_EXPANSION", false),
		SemanticMergeEnabled: getBool("AGGREGATOR_SEMANTIC_MERGE", false),
		SeverityLLMEnabled:   getBool("AGGREGATOR_SEVERITY_LLM", false),
	}

	if window := os.Getenv("AGGREGATOR_WINDOW_H"); window != "" {
		var hours int
		if _, err := fmt.Sscanf(window, "%d", &hours); err != nil {
			return Config{}, fmt.Errorf("parse AGGREGATOR_WINDOW_H: %w", err)
		}
		cfg.DefaultWindow = time.Duration(hours) * time.Hour
	}

	if temp := os.Getenv("GROQ_TEMPERATURE"); temp != "" {
		if _, err := fmt.Sscanf(temp, "%f", &cfg.LLMTemperature); err != nil {
			return Config{}, fmt.Errorf("parse GROQ_TEMPERATURE: %w", err)
		}
	}

	if tokens := os.Getenv("GROQ_MAX_TOKENS"); tokens != "" {
		if _, err := fmt.Sscanf(tokens, "%d", &cfg.LLMMaxTokens); err != nil {
			return Config{}, fmt.Errorf("parse GROQ_MAX_TOKENS: %w", err)
		}
	}

	if concurrent := os.Getenv("GROQ_MAX_CONCURRENT"); concurrent != "" {
		if _, err := fmt.Sscanf(concurrent, "%d", &cfg.MaxConcurrent); err != nil {
			return Config{}, fmt.Errorf("parse GROQ_MAX_CONCURRENT: %w", err)
		}
	}

	if retries := os.Getenv("GROQ_RETRY_MAX"); retries != "" {
		if _, err := fmt.Sscanf(retries, "%d", &cfg.RetryMax); err != nil {
			return Config{}, fmt.Errorf("parse GROQ_RETRY_MAX: %w", err)
		}
	}

	if baseMS := os.Getenv("GROQ_RETRY_BASE_MS"); baseMS != "" {
		var ms int
		if _, err := fmt.Sscanf(baseMS, "%d", &ms); err != nil {
			return Config{}, fmt.Errorf("parse GROQ_RETRY_BASE_MS: %w", err)
		}
		cfg.RetryBaseDelay = time.Duration(ms) * time.Millisecond
	}

	for key, field := range map[string]*float64{
		"AGGREGATOR_SEED_THRESHOLD":        &cfg.SeedThreshold,
		"AGGREGATOR_ID_MERGE_THRESHOLD":    &cfg.IDMergeThreshold,
		"AGGREGATOR_TITLE_MERGE_THRESHOLD": &cfg.TitleMergeThreshold,
		"AGGREGATOR_MIN_COHERENCE":         &cfg.MinCoherence,
		"AGGREGATOR_SPLIT_THRESHOLD":       &cfg.SplitThreshold,
		"AGGREGATOR_EXPAND_THRESHOLD":      &cfg.ExpandThreshold,
	} {
		if value := os.Getenv(key); value != "" {
			if _, err := fmt.Sscanf(value, "%f", field); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", key, err)
			}
		}
	}

	for key, field := range map[string]*int{
		"AGGREGATOR_CHUNK_SIZE":     &cfg.ChunkSize,
		"AGGREGATOR_PER_DOMAIN_CAP": &cfg.PerDomainCap,
		"AGGREGATOR_DISPLAY_CAP":    &cfg.DisplayCap,
	} {
		if value := os.Getenv(key); value != "" {
			if _, err := fmt.Sscanf(value, "%d", field); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", key, err)
			}
		}
	}

	if pacing := os.Getenv("AGGREGATOR_PACING_MS"); pacing != "" {
		var ms int
		if _, err := fmt.Sscanf(pacing, "%d", &ms); err != nil {
			return Config{}, fmt.Errorf("parse AGGREGATOR_PACING_MS: %w", err)
		}
		cfg.PacingDelay = time.Duration(ms) * time.Millisecond
	}

	if ttl := os.Getenv("AGGREGATOR_CACHE_TTL_S"); ttl != "" {
		var seconds int
		if _, err := fmt.Sscanf(ttl, "%d", &seconds); err != nil {
			return Config{}, fmt.Errorf("parse AGGREGATOR_CACHE_TTL_S: %w", err)
		}
		cfg.CacheTTL = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
