// Package ratelimit applies token-bucket limits to the MCP study tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter is a token-bucket limiter with one bucket per key. A fresh key
// starts with a full burst; tokens refill continuously at the configured
// rate and never accumulate past the burst size. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	perSec float64
	burst  float64

	clock func() time.Time
}

type bucket struct {
	tokens float64
	asOf   time.Time
}

// NewLimiter creates a limiter that refills perSec tokens per second up to
// a maximum of burst, which is also the starting balance.
func NewLimiter(perSec float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		perSec:  perSec,
		burst:   float64(burst),
		clock:   time.Now,
	}
}

// Allow spends one token from key's bucket. It reports false when the
// bucket is empty; the caller decides what rejection means.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, asOf: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.asOf).Seconds(); elapsed > 0 {
		b.tokens += l.perSec * elapsed
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.asOf = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// ToolLimiters maps MCP tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters builds the default per-tool limits. Reviews happen at
// human study pace, so these are generous for real use and only trip on
// runaway agent loops.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"study_queue":     NewLimiter(1.0, 10),      // 60/minute, burst 10
		"grade_review":    NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"diagnose_review": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"struggle_report": NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"session_stats":   NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit spends a token for the named tool. Tools without a configured
// limiter are never limited.
func CheckLimit(limiters ToolLimiters, tool string) error {
	limiter, ok := limiters[tool]
	if !ok {
		return nil
	}
	if !limiter.Allow(tool) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", tool)
	}
	return nil
}
