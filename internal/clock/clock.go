// Package clock abstracts time so window expiry and TTL checks can be
// tested without sleeps.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time to components that reason about
// expiry (rate-limit windows, cache TTLs).
type Clock interface {
	Now() time.Time
}

// System reads the wall clock. Use in production.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a hand-advanced clock for deterministic tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
