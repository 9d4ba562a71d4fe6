package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter keeps one token bucket per key. Every key starts full and refills at
// refillPerSec tokens per second up to capacity.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	every   rate.Limit
	idleTTL time.Duration
	lastGC  time.Time
	now     func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithIdleTTL drops buckets untouched for longer than ttl.
func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Limiter) { l.idleTTL = ttl }
}

func New(capacity, refillPerSec float64, opts ...Option) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		burst:   int(math.Max(1, capacity)),
		every:   rate.Limit(refillPerSec),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastGC = l.now()
	return l
}

// Allow consumes one token for key when available.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gc(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.last = now
	return b.lim.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// gc runs at most once per idleTTL; l.mu must be held.
func (l *Limiter) gc(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.last) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastGC = now
}
