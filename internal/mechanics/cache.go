package mechanics

import (
	"sort"
	"strings"
	"sync"

	"github.com/astroviz/orrery/internal/viewmode"
)

// Fingerprint is the structural cache key for a calculation: the sorted
// object-id set, the view mode and the pause flag. Two inputs with equal
// fingerprints must produce identical layouts, so a cached result substitutes
// a recomputation exactly.
type Fingerprint struct {
	ObjectIDs string
	Mode      viewmode.Mode
	Paused    bool
}

// NewFingerprint derives the cache key from an input object-id list. The id
// list is sorted so input ordering does not affect the key; the unit
// separator keeps distinct id lists from aliasing.
func NewFingerprint(ids []string, mode viewmode.Mode, paused bool) Fingerprint {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return Fingerprint{
		ObjectIDs: strings.Join(sorted, "\x1f"),
		Mode:      mode,
		Paused:    paused,
	}
}

// resultCache stores finished layouts keyed by fingerprint. Entries are
// replaced wholesale and the stored maps are never mutated, so a reader can
// hold a returned result across an invalidation.
type resultCache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]*Result
	hits    uint64
	misses  uint64
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[Fingerprint]*Result)}
}

func (c *resultCache) get(key Fingerprint) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

func (c *resultCache) put(key Fingerprint, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r
}

// clear drops every cached layout. The entries map is replaced, not emptied,
// so concurrent readers of an old result are unaffected.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]*Result)
}

func (c *resultCache) stats() (size int, hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), c.hits, c.misses
}
