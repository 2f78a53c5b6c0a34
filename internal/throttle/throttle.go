// Package throttle implements an in-memory, per-key token-bucket limiter.
//
// The bot keys buckets by sender id and the ops API by client address.
// Idle buckets are evicted opportunistically during lookups, which keeps
// memory bounded without a background goroutine. The limiter is process
// local.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTTL = 10 * time.Minute
	gcEvery    = 5000
)

// bucket holds a single limiter and the last time it was used.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a set of token buckets keyed by an arbitrary string.
// It is safe for concurrent use.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	buckets  map[string]*bucket
	ttl      time.Duration
	cleanupN uint64
}

// New returns a Limiter refilling rps tokens per second up to burst.
// burst <= 0 is coerced to 1. rps <= 0 disables limiting entirely.
func New(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucket),
		ttl:     defaultTTL,
	}
}

// Disabled reports whether the limiter lets everything through.
func (l *Limiter) Disabled() bool { return l == nil || l.rps <= 0 }

// Allow consumes one token from key's bucket and reports whether one was
// available.
func (l *Limiter) Allow(key string) bool {
	if l.Disabled() {
		return true
	}
	return l.get(key).Allow()
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// get returns the limiter for key, creating it if absent. Idle buckets are
// evicted every gcEvery lookups, before the requested one is refreshed.
func (l *Limiter) get(key string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupN++
	if l.cleanupN >= gcEvery {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.ttl {
				delete(l.buckets, k)
			}
		}
		l.cleanupN = 0
	}

	if b, ok := l.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}
