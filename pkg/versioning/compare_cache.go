package versioning

import (
	"sync"
	"time"
)

type comparisonEntry struct {
	comparison *VersionComparison
	insertedAt time.Time
}

// comparisonCache is a thread-safe, size-bounded cache for version
// comparisons. Versions are immutable, so a cached comparison never goes
// stale; the cache only bounds memory. When at capacity the oldest entry
// by insertion time is evicted.
type comparisonCache struct {
	mu      sync.RWMutex
	items   map[string]*comparisonEntry
	maxSize int
}

// newComparisonCache creates a cache holding up to maxSize comparisons.
// A maxSize of 0 disables caching entirely.
func newComparisonCache(maxSize int) *comparisonCache {
	return &comparisonCache{
		items:   make(map[string]*comparisonEntry, maxSize),
		maxSize: maxSize,
	}
}

func comparisonKey(fromID, toID string) string {
	return fromID + "|" + toID
}

func (c *comparisonCache) get(fromID, toID string) (*VersionComparison, bool) {
	if c.maxSize == 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[comparisonKey(fromID, toID)]
	if !ok {
		return nil, false
	}
	return e.comparison, true
}

func (c *comparisonCache) put(cmp *VersionComparison) {
	if c.maxSize == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := comparisonKey(cmp.FromVersionID, cmp.ToVersionID)
	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = &comparisonEntry{comparison: cmp, insertedAt: time.Now()}
}

func (c *comparisonCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the oldest insertedAt timestamp.
// Must be called with c.mu held.
func (c *comparisonCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.items {
		if first || e.insertedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.insertedAt
			first = false
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}
