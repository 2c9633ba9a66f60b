package dataset

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"gnlreports/pkg/contracts/domain"
)

// DatasetLoader is the loading operation a Cache memoizes.
type DatasetLoader interface {
	Load(ctx context.Context, source string, opts LoadOptions) (*domain.Dataset, error)
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries  int     `json:"entries"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// Cache memoizes loaded datasets keyed by (source, sheet). Concurrent misses
// for the same key share one load. Failed loads are not cached.
type Cache struct {
	loader  DatasetLoader
	entries map[string]*domain.Dataset
	mutex   sync.RWMutex
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache wraps loader with a process-lifetime cache.
func NewCache(loader DatasetLoader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]*domain.Dataset),
	}
}

func cacheKey(source, sheet string) string {
	return source + "\x00" + sheet
}

// Get returns the dataset for (source, opts.Sheet), loading it on first use.
// hit reports whether the dataset came from the cache.
func (c *Cache) Get(ctx context.Context, source string, opts LoadOptions) (ds *domain.Dataset, hit bool, err error) {
	key := cacheKey(source, opts.Sheet)

	c.mutex.RLock()
	ds, ok := c.entries[key]
	c.mutex.RUnlock()
	if ok {
		c.hits.Add(1)
		return ds, true, nil
	}

	c.misses.Add(1)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mutex.RLock()
		cached, ok := c.entries[key]
		c.mutex.RUnlock()
		if ok {
			return cached, nil
		}

		// A caller giving up must not fail the others sharing this load.
		loaded, err := c.loader.Load(context.WithoutCancel(ctx), source, opts)
		if err != nil {
			return nil, err
		}

		c.mutex.Lock()
		c.entries[key] = loaded
		c.mutex.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Dataset), false, nil
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	entries := len(c.entries)
	c.mutex.RUnlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	ratio := float64(0)
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return CacheStats{Entries: entries, Hits: hits, Misses: misses, HitRatio: ratio}
}
