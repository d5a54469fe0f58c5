package platform

import (
	"context"
	"log"
	"sync"
	"time"
)

// OwnershipCache answers "does this platform own campaign X" without
// hitting the platform API on every routing decision. The id set is
// loaded lazily and refreshed after the TTL; a failed refresh serves the
// stale set rather than failing routing.
type OwnershipCache struct {
	mu      sync.Mutex
	ids     map[string]struct{}
	fetched time.Time
	ttl     time.Duration
	load    func(ctx context.Context) ([]string, error)
}

// NewOwnershipCache creates a cache backed by the given loader. The
// loader is expected to go through the adapter's rate limiter.
func NewOwnershipCache(ttl time.Duration, load func(ctx context.Context) ([]string, error)) *OwnershipCache {
	return &OwnershipCache{ttl: ttl, load: load}
}

// Owns reports whether the platform currently claims the campaign id.
func (c *OwnershipCache) Owns(ctx context.Context, campaignID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ids == nil || time.Since(c.fetched) > c.ttl {
		ids, err := c.load(ctx)
		if err != nil {
			if c.ids == nil {
				log.Printf("[platform] ownership load failed with empty cache: %v", err)
				return false
			}
			// Serve stale on refresh failure.
		} else {
			set := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				set[id] = struct{}{}
			}
			c.ids = set
			c.fetched = time.Now()
		}
	}

	_, ok := c.ids[campaignID]
	return ok
}

// Invalidate forces a reload on the next Owns call. Adapters call it
// after mutations that may change the campaign set.
func (c *OwnershipCache) Invalidate() {
	c.mu.Lock()
	c.fetched = time.Time{}
	c.mu.Unlock()
}
