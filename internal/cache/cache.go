// Package cache implements C6: a canonical-key dedup set for calendars
// whose remaining future is economically indistinguishable under 2-sig-fig
// bucketing. It is a presence test only — Contains/Add, never a value
// lookup — backed by an LRU-bounded third-party cache so a pathological
// subtree that revisits millions of near-duplicate futures evicts its
// oldest entries instead of growing without bound between memory-monitor
// probes (§4.4 expansion note in SPEC_FULL.md).
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/napolitain/cropsolver/internal/calendar"
)

// defaultCapacity bounds a single worker's cache. It is generous enough
// that eviction is a last-resort brake, not a routine occurrence: the
// memory monitor (C8) is still the primary defense against runaway growth.
const defaultCapacity = 250_000

// Cache is a per-worker canonical-key set. It is never shared across
// workers (§4.5 "cross-worker cache" — each worker's cache is local).
type Cache struct {
	set       *lru.Cache[string, struct{}]
	sigDigits int
}

// New builds an empty cache bucketing keys to sigDigits significant figures.
func New(sigDigits int) *Cache {
	set, err := lru.New[string, struct{}](defaultCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// defaultCapacity never is.
		panic(err)
	}
	return &Cache{set: set, sigDigits: sigDigits}
}

// SeenOrMark computes cal's canonical key from fromDay onward, and reports
// whether it was already present. As a side effect it inserts the key,
// matching C5's "compute key; if present, count cache hit, continue;
// otherwise insert" sequencing in one call.
func (c *Cache) SeenOrMark(cal *calendar.Calendar, fromDay int) bool {
	key := cal.CacheKey(fromDay, c.sigDigits)
	if c.set.Contains(key) {
		return true
	}
	c.set.Add(key, struct{}{})
	return false
}

// Len reports the number of distinct keys currently cached.
func (c *Cache) Len() int {
	return c.set.Len()
}
