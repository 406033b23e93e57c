// Package ratelimit throttles brute-forceable endpoints with a token
// bucket per client key.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// Limiter tracks one token bucket per key. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	refillRate float64
	ttl        time.Duration
}

// NewLimiter allows bursts of capacity requests per key, refilled at
// refillRate tokens per second. Buckets idle longer than ttl are dropped;
// ttl 0 keeps them forever.
func NewLimiter(capacity int, refillRate float64, ttl time.Duration) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		ttl:        ttl,
	}
}

// Allow reports whether a request for the given key may proceed and
// consumes a token when it does.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.prune(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity), lastRefill: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(float64(l.capacity), b.tokens+elapsed*l.refillRate)
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) prune(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
}
