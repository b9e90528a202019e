package tokenlist

import (
	"context"
	"sync"
	"time"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/sirupsen/logrus"
)

// Directory is the external token-metadata collaborator. The real
// implementation is the Jupiter token list; tests use fakes.
type Directory interface {
	ListAllTokens(ctx context.Context) ([]models.TokenMetadata, error)
}

// Cache keeps one process-wide snapshot of the token directory, refreshed at
// most once per TTL window. A failed refresh keeps serving the stale
// snapshot; an empty map is only returned when the directory has never been
// reachable. Refresh is whole-cache replace-or-keep, no per-entry eviction.
type Cache struct {
	dir    Directory
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger

	mu          sync.Mutex
	tokens      map[string]models.TokenMetadata
	lastRefresh time.Time
}

// NewCache constructs the cache. It is built once per process and passed by
// reference to the scanner; no background goroutine, refreshes happen on Get.
func NewCache(dir Directory, ttl time.Duration, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
		tokens: map[string]models.TokenMetadata{},
	}
}

// WithClock overrides the time source. Tests only.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the mint -> metadata mapping, refreshing it first when the TTL
// has expired or nothing has been loaded yet. It never returns an error:
// metadata is cosmetic and a miss degrades to placeholders downstream.
//
// Racing callers serialize on the mutex, so an expired window triggers
// exactly one refresh attempt; the winner's snapshot is what everyone sees.
func (c *Cache) Get(ctx context.Context) map[string]models.TokenMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tokens) > 0 && c.now().Sub(c.lastRefresh) < c.ttl {
		return c.tokens
	}

	list, err := c.dir.ListAllTokens(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("token directory refresh failed, serving stale snapshot")
		return c.tokens
	}

	next := make(map[string]models.TokenMetadata, len(list))
	for _, t := range list {
		next[t.Mint] = t
	}
	c.tokens = next
	c.lastRefresh = c.now()

	c.logger.WithField("tokens", len(next)).Debug("token directory refreshed")
	return c.tokens
}
