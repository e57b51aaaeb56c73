// Package ratelimit enforces the per-provider token bucket of spec.md §5:
// embedding and LLM calls are rate-limited per provider from configuration;
// excess traffic fails with PROVIDER_BUSY rather than queueing unbounded.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kbstack/ragkb/internal/apperr"
)

type Limiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func New(rps float64, burst int) *Limiters {
	return &Limiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Allow consumes one token from the named provider's bucket, returning
// apperr.ProviderBusy when the bucket is exhausted.
func (l *Limiters) Allow(ctx context.Context, provider string) error {
	if !l.limiterFor(provider).Allow() {
		return apperr.New(apperr.ProviderBusy, "rate limit exhausted for provider "+provider)
	}
	return nil
}

func (l *Limiters) limiterFor(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[provider]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[provider] = lim
	}
	return lim
}
