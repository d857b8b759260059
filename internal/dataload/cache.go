package dataload

import (
	"sync"
	"time"
)

// QuoteCache is a caller-owned cache of loaded datasets with a fixed
// time-to-live. Each backtest run that wants caching passes its own
// instance; there is no ambient shared cache, so runs stay reproducible
// and independently runnable in parallel.
type QuoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	dataset  *Dataset
	loadedAt time.Time
}

// NewQuoteCache creates a cache whose entries expire after ttl.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached dataset for key if it has not expired.
func (c *QuoteCache) Get(key string) (*Dataset, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.loadedAt) > c.ttl {
		return nil, false
	}
	return entry.dataset, true
}

// Put stores a dataset under key, resetting its TTL.
func (c *QuoteCache) Put(key string, ds *Dataset) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{dataset: ds, loadedAt: c.now()}
	c.mu.Unlock()
}

// Load returns the cached dataset for path, loading and caching it on a
// miss or after expiry.
func (c *QuoteCache) Load(path string) (*Dataset, error) {
	if ds, ok := c.Get(path); ok {
		return ds, nil
	}
	ds, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	c.Put(path, ds)
	return ds, nil
}
