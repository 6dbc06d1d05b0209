package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles LLM requests per pipeline phase, so a fast extraction
// phase cannot starve scoring of its request budget
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with a default per-phase rate
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the phase's limiter admits one request
func (l *Limiter) Wait(ctx context.Context, phase string) error {
	return l.getLimiter(phase).Wait(ctx)
}

// Allow reports whether a request would be admitted without waiting
func (l *Limiter) Allow(phase string) bool {
	return l.getLimiter(phase).Allow()
}

// SetPhaseRate overrides the rate for one phase
func (l *Limiter) SetPhaseRate(phase string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[phase] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) getLimiter(phase string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[phase]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[phase]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[phase] = limiter
	return limiter
}
