// Package cache provides an in-memory key→value store with TTL-based
// expiration, shared by all geocoding query kinds.
package cache

import (
	"sync"
	"time"

	"github.com/spotmapr/geoproxy/internal/clock"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is a mutex-guarded TTL store. Expired entries are deleted lazily
// on read and swept periodically by the janitor. Reads and writes are
// safe for concurrent use; StartJanitor/StopJanitor are not and belong to
// the owning process's startup and shutdown.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	clk     clock.Clock

	janitorStop chan struct{}
}

// New returns an empty cache reading time from clk.
func New[V any](clk clock.Clock) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		clk:     clk,
	}
}

// Set stores value under key for ttl, overwriting any existing entry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	now := c.clk.Now()
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: now, ttl: ttl}
	c.mu.Unlock()
}

// Get returns the value for key if present and not expired. An expired
// entry is deleted before reporting a miss; the check-expire-delete
// sequence is atomic per key.
func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.clk.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(now) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether key holds a live entry, with the same expiry
// semantics as Get.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry. Intended for test isolation.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup deletes every expired entry. The janitor calls this on its
// schedule; it can also be invoked directly.
func (c *Cache[V]) Cleanup() {
	now := c.clk.Now()
	c.mu.Lock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// StartJanitor launches a background sweep running Cleanup every
// interval. Calling it while a janitor is already running is a no-op.
func (c *Cache[V]) StartJanitor(interval time.Duration) {
	if c.janitorStop != nil {
		return
	}
	stop := make(chan struct{})
	c.janitorStop = stop
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// StopJanitor stops the background sweep, if one is running.
func (c *Cache[V]) StopJanitor() {
	if c.janitorStop == nil {
		return
	}
	close(c.janitorStop)
	c.janitorStop = nil
}
