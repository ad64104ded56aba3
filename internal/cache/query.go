package cache

import (
	"strings"
	"sync"
	"time"
)

// State describes what the cache knows about a key.
type State int

const (
	// Absent means no value is cached and no fetch is in flight.
	Absent State = iota
	// Pending means a fetch for this key has started but not completed.
	Pending
	// Hit means a fresh value is cached.
	Hit
)

// QueryCache caches query results keyed by their parameters. It layers
// in-flight tracking over the LRU so concurrent readers of the same screen
// can tell a missing result from one that is already being fetched.
//
// Invalidation is explicit: mutations call Invalidate with a key-family
// prefix after a successful write. There is no optimistic update; a reader
// may observe a stale value until the invalidation lands.
type QueryCache[T any] struct {
	mu      sync.Mutex
	lru     *LRUCache[T]
	pending map[string]struct{}
}

// NewQueryCache creates a query cache with the given capacity and TTL.
func NewQueryCache[T any](maxSize int, ttl time.Duration) *QueryCache[T] {
	return &QueryCache[T]{
		lru:     NewLRUCache[T](maxSize, ttl),
		pending: make(map[string]struct{}),
	}
}

// Key builds a cache key from query parameters. Empty parts are kept so that
// open-ended ranges produce distinct, stable keys.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the cached value for key and its state.
func (c *QueryCache[T]) Get(key string) (T, State) {
	if v, ok := c.lru.Get(key); ok {
		return v, Hit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if _, ok := c.pending[key]; ok {
		return zero, Pending
	}
	return zero, Absent
}

// Begin marks a fetch for key as in flight.
func (c *QueryCache[T]) Begin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = struct{}{}
}

// Put stores a fetched value and clears the in-flight mark.
func (c *QueryCache[T]) Put(key string, value T) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	c.lru.Set(key, value)
}

// Abort clears the in-flight mark without storing anything. Called when a
// fetch fails or its screen goes away; failed computations are never cached.
func (c *QueryCache[T]) Abort(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
}

// Invalidate drops every cached entry whose key starts with prefix and
// returns how many were removed. In-flight marks are left alone: the fetch
// that is running will overwrite with fresh data anyway.
func (c *QueryCache[T]) Invalidate(prefix string) int {
	return c.lru.DeletePrefix(prefix)
}

// CleanExpired removes expired entries, satisfying the manager's Cleaner.
func (c *QueryCache[T]) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Size returns the number of cached values (in-flight marks excluded).
func (c *QueryCache[T]) Size() int {
	return c.lru.Size()
}
