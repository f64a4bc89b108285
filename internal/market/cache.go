package market

import (
	"sync"
	"time"
)

// KeyKind separates the cache namespaces so a single-symbol entry can never
// collide with a pair-level entry.
type KeyKind string

const (
	// KindSpot keys one provider ticker symbol.
	KindSpot KeyKind = "spot"
	// KindPair keys a resolved cross rate between two symbols.
	KindPair KeyKind = "pair"
)

// Key addresses one cache entry.
type Key struct {
	Kind   KeyKind
	Symbol string
}

type cacheEntry struct {
	price       float64
	refreshedAt time.Time
}

// PriceCache is a time-bounded in-memory price cache. Entries expire lazily:
// a read older than the freshness window is a miss and the caller must
// refresh. Failed fetches are never stored. Safe for concurrent use;
// concurrent refreshes of the same key are benign (last write wins).
type PriceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[Key]cacheEntry
	now     func() time.Time
}

// NewPriceCache creates a cache with the given freshness window.
func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PriceCache{
		ttl:     ttl,
		entries: make(map[Key]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached price if it is still within the freshness window.
func (c *PriceCache) Get(key Key) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.refreshedAt) >= c.ttl {
		return 0, false
	}
	return entry.price, true
}

// Put stores a freshly fetched price.
func (c *PriceCache) Put(key Key, price float64) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{price: price, refreshedAt: c.now()}
	c.mu.Unlock()
}
