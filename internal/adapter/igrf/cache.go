package igrf

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

// CachedProvider wraps a FieldProvider with an in-memory LRU cache. Queries
// are keyed to about 10 m horizontally, 1 m vertically and one day in time,
// which is finer than the field model's own resolution.
type CachedProvider struct {
	inner   domain.FieldProvider
	cache   *lruCache[domain.FieldVector]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a field provider.
func NewCachedProvider(inner domain.FieldProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache[domain.FieldVector](maxEntries),
		metrics: metrics,
	}
}

// FieldAt returns the cached vector for the query's cell, or asks the inner
// provider. Errors are never cached.
func (c *CachedProvider) FieldAt(ctx context.Context, q domain.Query) (domain.FieldVector, error) {
	key := cacheKey(q)
	if v, ok := c.cache.get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("field", "hit").Inc()
		return v, nil
	}
	c.metrics.CacheLookups.WithLabelValues("field", "miss").Inc()

	v, err := c.inner.FieldAt(ctx, q)
	if err != nil {
		return v, err
	}
	c.cache.put(key, v)
	return v, nil
}

// Len reports the number of cached entries.
func (c *CachedProvider) Len() int { return c.cache.len() }

func cacheKey(q domain.Query) string {
	return fmt.Sprintf("%.4f,%.4f,%.3f@%s", q.Latitude, q.Longitude, q.AltitudeKm, q.Epoch.UTC().Format("2006-01-02"))
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) unlink(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
