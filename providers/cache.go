package providers

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// SearchCache keeps recent search pages so a scan followed by scan/add does
// not hit the provider twice for the same barcode. Entries expire lazily.
type SearchCache struct {
	entries cmap.ConcurrentMap[string, cachedPage]
	ttl     time.Duration
}

type cachedPage struct {
	results []RawRelease
	page    SearchPage
	stored  time.Time
}

func NewSearchCache(ttl time.Duration) *SearchCache {
	return &SearchCache{
		entries: cmap.New[cachedPage](),
		ttl:     ttl,
	}
}

func (c *SearchCache) Get(key string) ([]RawRelease, SearchPage, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, SearchPage{}, false
	}
	if time.Since(entry.stored) > c.ttl {
		c.entries.Remove(key)
		return nil, SearchPage{}, false
	}
	return entry.results, entry.page, true
}

func (c *SearchCache) Put(key string, results []RawRelease, page SearchPage) {
	c.entries.Set(key, cachedPage{results: results, page: page, stored: time.Now()})
}
