package cluster

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// CallGate bounds the number of in-flight external calls and retries
// rate-limit-classified failures with exponential backoff and jitter.
// Each gate owns its own semaphore, so independent pipelines never share
// hidden state.
type CallGate struct {
	slots      chan struct{}
	maxRetries int
	baseDelay  time.Duration
}

// NewCallGate builds a gate allowing maxConcurrent in-flight calls. Failed
// calls classified as rate limits are retried up to maxRetries times,
// doubling baseDelay between attempts.
func NewCallGate(maxConcurrent, maxRetries int, baseDelay time.Duration) *CallGate {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 800 * time.Millisecond
	}
	return &CallGate{
		slots:      make(chan struct{}, maxConcurrent),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Do runs fn holding a concurrency slot. The slot is released on every exit
// path, including errors, so queued callers always wake. Non-rate-limit
// errors propagate immediately without retry.
func (g *CallGate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slots }()

	var err error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) {
			return err
		}
		if attempt == g.maxRetries-1 {
			break
		}

		delay := g.baseDelay << attempt
		if jitter := int64(g.baseDelay) / 2; jitter > 0 {
			delay += time.Duration(rand.Int63n(jitter))
		}
		log.Printf("call gate: rate limited (attempt %d/%d), retrying in %v", attempt+1, g.maxRetries, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
