// Package ratelimit implements per-client fixed-window rate limiting.
//
// Time is divided into windows of fixed length starting at each client's
// first request. A client may burst up to twice the limit across a window
// boundary; at this service's scale that is an accepted property of the
// algorithm, not a defect.
package ratelimit

import (
	"sync"
	"time"

	"github.com/spotmapr/geoproxy/internal/clock"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks request counts per client key over a rolling fixed
// window. Safe for concurrent use. State is in-memory only and does not
// survive a restart.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	max    int
	length time.Duration
	clk    clock.Clock
}

// New returns a Limiter admitting up to max requests per key within each
// window of the given length.
func New(max int, length time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		max:     max,
		length:  length,
		clk:     clk,
	}
}

// Allow reports whether a request from key is admitted. The
// check-and-increment is atomic per key: of N concurrent calls for the
// same key, exactly as many are admitted as the window has room for.
func (l *Limiter) Allow(key string) bool {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.length)}
		return true
	}
	if w.count < l.max {
		w.count++
		return true
	}
	return false
}

// Reset drops all windows. Intended for test isolation.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.windows = make(map[string]*window)
	l.mu.Unlock()
}
