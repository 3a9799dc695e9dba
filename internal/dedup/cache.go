// Package dedup implements the two-tier deduplication cache used to suppress
// repeated notifications. The memory tier is a bounded LRU; the storage tier is
// the dedup_cache_entries table.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

const (
	// DefaultWriteThroughRatio is the memory fill ratio above which puts also
	// reach storage.
	DefaultWriteThroughRatio = 0.8

	keySeparator   = "|"
	persistTimeout = 3 * time.Second
)

// Store is the durable tier. Get returns pgx.ErrNoRows for unknown keys.
type Store interface {
	Save(ctx context.Context, entry domain.DeduplicationCacheEntry) error
	Get(ctx context.Context, key string) (*domain.DeduplicationCacheEntry, error)
}

// Cache answers "was this unit of work already done" across restarts and instances.
type Cache struct {
	mem       *lru.Cache[string, time.Time]
	store     Store
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
	capacity  int
	threshold int
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records lookups and failed writes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithWriteThroughRatio sets the fill ratio above which puts also go to storage.
func WithWriteThroughRatio(ratio float64) Option {
	return func(c *Cache) {
		if ratio > 0 && ratio <= 1 {
			c.threshold = int(float64(c.capacity) * ratio)
		}
	}
}

// New builds a cache holding at most capacity entries in memory.
func New(capacity int, store Store, logger *zap.Logger, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		return nil, util.NewValidationError("dedup capacity must be positive", map[string]any{"capacity": capacity})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		store:     store,
		logger:    logger,
		now:       time.Now,
		capacity:  capacity,
		threshold: int(float64(capacity) * DefaultWriteThroughRatio),
	}
	for _, opt := range opts {
		opt(c)
	}
	mem, err := lru.NewWithEvict[string, time.Time](capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.mem = mem
	return c, nil
}

// Key joins the identifying parts of a unit of work.
func Key(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// ContainsKey reports whether key was put and has not expired. Memory is consulted
// first; a storage hit is copied back into memory. Storage errors are returned.
func (c *Cache) ContainsKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, util.NewValidationError("dedup key is required", nil)
	}
	now := c.now()

	if expiresAt, ok := c.mem.Get(key); ok {
		if expiresAt.After(now) {
			c.metrics.RecordDedupLookup(observability.DedupTierMemory)
			return true, nil
		}
		c.mem.Remove(key)
	}

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.metrics.RecordDedupLookup(observability.DedupTierMiss)
			return false, nil
		}
		return false, fmt.Errorf("dedup lookup %q: %w", key, err)
	}
	if entry.Expired(now) {
		c.metrics.RecordDedupLookup(observability.DedupTierMiss)
		return false, nil
	}

	c.mem.Add(key, entry.ExpiresAt)
	c.metrics.RecordDedupLookup(observability.DedupTierStorage)
	return true, nil
}

// Put marks key as done for ttl. Once the memory tier is above the write-through
// threshold the entry is also saved to storage; that write is best-effort.
func (c *Cache) Put(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return util.NewValidationError("dedup key is required", nil)
	}
	if ttl <= 0 {
		return util.NewValidationError("dedup ttl must be positive", map[string]any{"ttl": ttl.String()})
	}
	expiresAt := c.now().Add(ttl)
	c.mem.Add(key, expiresAt)

	if c.mem.Len() > c.threshold {
		c.persist(ctx, key, expiresAt)
	}
	return nil
}

// Len returns the number of entries held in memory.
func (c *Cache) Len() int {
	return c.mem.Len()
}

// onEvict runs for capacity evictions and explicit removals, outside the LRU lock.
func (c *Cache) onEvict(key string, expiresAt time.Time) {
	if !expiresAt.After(c.now()) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	c.persist(ctx, key, expiresAt)
}

func (c *Cache) persist(ctx context.Context, key string, expiresAt time.Time) {
	err := c.store.Save(ctx, domain.DeduplicationCacheEntry{Key: key, ExpiresAt: expiresAt})
	if err != nil {
		c.metrics.RecordDedupPersistFailure()
		c.logger.Warn("persist dedup entry failed", zap.String("key", key), zap.Error(err))
	}
}
