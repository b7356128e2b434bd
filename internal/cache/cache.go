// Package cache provides the short-lived report cache handle. The store is
// dependency-injected rather than reached through a process-wide singleton so
// tests can build a fresh cache per case.
package cache

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DashboardKey caches the filter-free dashboard summary, the only report
// expensive enough to memoize. Parameterized reports are never cached: their
// key space is unbounded.
const DashboardKey = "reports:dashboard"

// DefaultDashboardTTL bounds how stale an untouched dashboard entry may get.
const DefaultDashboardTTL = 5 * time.Minute

// ErrUnavailable signals that the cache store cannot be reached. Callers must
// treat it as a miss and fall back to computing fresh.
var ErrUnavailable = errors.New("cache: store unavailable")

// Store is a key-value cache with per-entry TTL. Implementations must be safe
// for concurrent use; readers never observe a half-written entry.
type Store interface {
	// Get returns the entry for key. A read past the entry's TTL is a miss.
	Get(key string) (any, bool, error)
	// Set stores value under key for at most ttl.
	Set(key string, value any, ttl time.Duration) error
	// Invalidate removes key immediately.
	Invalidate(key string) error
}

// Memory is an in-process Store. Entries expire passively: no background
// sweeper runs, an expired entry simply stops being returned.
type Memory struct {
	entries *gocache.Cache
}

// NewMemory builds an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) Get(key string) (any, bool, error) {
	if m == nil || m.entries == nil {
		return nil, false, ErrUnavailable
	}
	value, ok := m.entries.Get(key)
	return value, ok, nil
}

func (m *Memory) Set(key string, value any, ttl time.Duration) error {
	if m == nil || m.entries == nil {
		return ErrUnavailable
	}
	m.entries.Set(key, value, ttl)
	return nil
}

func (m *Memory) Invalidate(key string) error {
	if m == nil || m.entries == nil {
		return ErrUnavailable
	}
	m.entries.Delete(key)
	return nil
}
