package cluster

import (
	"context"
	"testing"
	"time"
)

func TestFingerprintIgnoresOrder(t *testing.T) {
	a := fingerprint("refine", []string{"x", "y", "z"})
	b := fingerprint("refine", []string{"z", "x", "y"})
	if a != b {
		t.Fatalf("fingerprint should be order independent: %s vs %s", a, b)
	}

	c := fingerprint("summary", []string{"x", "y", "z"})
	if a == c {
		t.Fatalf("different prefixes must not collide: %s", a)
	}

	d := fingerprint("refine", []string{"x", "y"})
	if a == d {
		t.Fatalf("different id sets must not collide: %s", a)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Fatalf("unexpected hit for missing key")
	}

	cache.Set(ctx, "k", "v", time.Minute)
	value, ok := cache.Get(ctx, "k")
	if !ok || value != "v" {
		t.Fatalf("expected cached value, got (%q, %v)", value, ok)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "k", "v", -time.Second)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}
