package ratelimit

import (
	"context"
	"testing"

	"github.com/kbstack/ragkb/internal/apperr"
)

func TestAllow_ExhaustsBurstThenBlocks(t *testing.T) {
	l := New(1, 2) // 1 token/sec refill, burst of 2
	ctx := context.Background()

	if err := l.Allow(ctx, "openai"); err != nil {
		t.Fatalf("first call should succeed within burst: %v", err)
	}
	if err := l.Allow(ctx, "openai"); err != nil {
		t.Fatalf("second call should succeed within burst: %v", err)
	}
	err := l.Allow(ctx, "openai")
	if err == nil {
		t.Fatal("third call should exhaust the burst and fail")
	}
	if !apperr.Is(err, apperr.ProviderBusy) {
		t.Errorf("expected ProviderBusy, got %v", apperr.KindOf(err))
	}
}

func TestAllow_PerProviderIsolation(t *testing.T) {
	l := New(1, 1)
	ctx := context.Background()

	if err := l.Allow(ctx, "openai"); err != nil {
		t.Fatalf("openai first call should succeed: %v", err)
	}
	if err := l.Allow(ctx, "openai"); err == nil {
		t.Fatal("openai second call should be rate limited")
	}
	if err := l.Allow(ctx, "anthropic"); err != nil {
		t.Fatalf("a different provider should have its own bucket: %v", err)
	}
}
