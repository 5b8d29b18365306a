// Package cache provides a small in-memory TTL cache for static probe
// results. Browser analyses are never cached — a fresh session per call is
// the point — but a probe only describes what the server sends, so
// repeated probes of the same URL within a short window are wasted
// fetches.
package cache

import (
	"sync"
	"time"

	"github.com/trackscan/trackscan/models"
)

// sweepEvery is how often the background sweeper scans for expired items.
const sweepEvery = 5 * time.Minute

type item struct {
	probe    *models.StaticProbe
	storedAt time.Time
}

// Cache is an in-memory probe cache keyed by URL.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*item

	capacity int
	ttl      time.Duration
}

// New creates a Cache holding at most capacity probes, each valid for ttl.
// A background sweeper drops expired items so misses do not accumulate.
func New(capacity int, ttl time.Duration) *Cache {
	c := &Cache{
		items:    make(map[string]*item),
		capacity: capacity,
		ttl:      ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached probe for url and whether it was a fresh hit.
func (c *Cache) Get(url string) (*models.StaticProbe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[url]
	if !ok || time.Since(it.storedAt) > c.ttl {
		return nil, false
	}
	return it.probe, true
}

// Set stores a probe under url. At capacity one arbitrary item is dropped
// to make room; map iteration order makes the pick effectively random.
func (c *Cache) Set(url string, probe *models.StaticProbe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.capacity {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}

	c.items[url] = &item{probe: probe, storedAt: time.Now()}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, it := range c.items {
			if it.storedAt.Before(cutoff) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
