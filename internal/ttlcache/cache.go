package ttlcache

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrTypeMismatch is returned by Get when the stored value has a different type.
	ErrTypeMismatch = errors.New("cache value type mismatch")
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache maps string keys to values that expire after a per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock used to stamp and evaluate expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (e entry) validAt(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// IsValid reports whether key holds an unexpired value.
func (c *Cache) IsValid(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Lookup returns the stored value when key is present and unexpired.
func (c *Cache) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.validAt(c.now()) {
		return nil, false
	}
	return e.value, true
}

// ExpiresAt returns the expiry instant of a valid entry.
func (c *Cache) ExpiresAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.validAt(c.now()) {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Get returns the value stored under key as a T. Callers are expected to check
// IsValid first; an absent or expired key yields ErrCacheMiss.
func Get[T any](c *Cache, key string) (T, error) {
	var zero T
	raw, ok := c.Lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, raw)
	}
	return value, nil
}

// TryGet returns the value stored under key when it is valid and of type T.
func TryGet[T any](c *Cache, key string) (T, bool) {
	value, err := Get[T](c, key)
	if err != nil {
		var zero T
		return zero, false
	}
	return value, true
}

// Set stores value under key, replacing any previous entry. The entry expires
// ttl after the call; a non-positive ttl stores an already expired entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Remove deletes key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear deletes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// ClearExpired deletes expired entries and returns how many were removed.
func (c *Cache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !e.validAt(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of valid entries.
func (c *Cache) Len() int {
	return len(c.Keys())
}

// Keys returns the valid keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if e.validAt(now) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
