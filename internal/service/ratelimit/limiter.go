package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window admission controller keyed by caller
// identity. The prune-check-append sequence for one identifier is atomic
// under the lock, so concurrent callers can never both slip past the limit.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	hits        map[string][]time.Time
	now         func() time.Time
}

// Option configures Limiter.
type Option func(*Limiter)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter admitting at most maxRequests per identifier per window.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		hits:        make(map[string][]time.Time),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit returns true and records the request if the identifier has room in
// the current window. A rejected attempt is not recorded.
func (l *Limiter) Admit(identifier string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := prune(l.hits[identifier], cutoff)
	if len(recent) >= l.maxRequests {
		l.hits[identifier] = recent
		return false
	}
	l.hits[identifier] = append(recent, now)
	return true
}

// Start launches the background sweep that drops identifiers with no
// requests in the current window, bounding memory. Stops when ctx is done.
func (l *Limiter) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Sweep removes identifiers whose recorded requests all fell out of the window.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, stamps := range l.hits {
		if len(prune(stamps, cutoff)) == 0 {
			delete(l.hits, id)
		}
	}
}

// prune drops timestamps at or before cutoff. Stamps are appended in order,
// so the first retained index bounds the rest.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
