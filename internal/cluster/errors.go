package cluster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stazcp/ai-news-aggregator-sub000/internal/llm"
)

// ErrRateLimited marks an upstream refusal caused by quota exhaustion. The
// orchestrator treats it as a distinguished abort signal: any stage that
// surfaces it short-circuits the whole run into the rate-limited terminal
// state instead of failing the request.
var ErrRateLimited = errors.New("upstream rate limited")

// MalformedResponseError reports an external call whose payload could not be
// decoded even after JSON-substring recovery. Callers treat it as an empty
// result rather than a failure.
type MalformedResponseError struct {
	Call string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Call, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// rateLimitPatterns are vendor strings seen in quota-exhaustion payloads.
var rateLimitPatterns = []string{
	"rate_limit_exceeded",
	"spend_limit_reached",
	"rate limit",
	"429",
}

// IsRateLimited classifies err as a rate-limit failure. Every caller that
// talks to the external model shares this classifier so backoff and fallback
// decisions stay consistent across the pipeline.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
