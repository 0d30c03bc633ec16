package cache

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// StatusEntry is the cached view of a user's protocol flag
type StatusEntry struct {
	Status    models.ProtocolStatus
	UpdatedAt int64
}

// StatusCache is the fast read tier of the protocol state store. Entries
// are overwritten explicitly on every status write; the LRU's TTL is only
// a safety net bounding staleness from a missed invalidation.
type StatusCache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, StatusEntry]
	logger *logrus.Logger
}

// NewStatusCache creates a new status cache
func NewStatusCache(cfg *config.CacheConfig, logger *logrus.Logger) *StatusCache {
	return &StatusCache{
		lru:    expirable.NewLRU[string, StatusEntry](cfg.Size, nil, cfg.TTL),
		logger: logger,
	}
}

// Get returns the cached entry for a user, if present
func (c *StatusCache) Get(userID string) (StatusEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(userID)
}

// Set stores an entry for a user. A write carrying an older UpdatedAt than
// the cached one is discarded, so the cache reflects durable commit order
// rather than the order in which racing callers reach it.
func (c *StatusCache) Set(userID string, entry StatusEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lru.Get(userID); ok && existing.UpdatedAt > entry.UpdatedAt {
		c.logger.WithFields(logrus.Fields{
			"user_id":          userID,
			"cached_updated":   existing.UpdatedAt,
			"rejected_updated": entry.UpdatedAt,
		}).Debug("Discarding stale status cache write")
		return
	}

	c.lru.Add(userID, entry)
}

// Invalidate removes a user's entry from the cache
func (c *StatusCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(userID)
}

// Purge removes all entries
func (c *StatusCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of cached entries
func (c *StatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
