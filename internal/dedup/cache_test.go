package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	saves   int
	getErr  error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]time.Time{}}
}

func (s *memoryStore) Save(_ context.Context, entry domain.DeduplicationCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries[entry.Key] = entry.ExpiresAt
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (*domain.DeduplicationCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	expiresAt, ok := s.entries[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.DeduplicationCacheEntry{Key: key, ExpiresAt: expiresAt}, nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, capacity int, store Store) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cache, err := New(capacity, store, zap.NewNop(), WithClock(clock.Now))
	require.NoError(t, err)
	return cache, clock
}

func TestPutThenContains(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, 10, newMemoryStore())

	require.NoError(t, cache.Put(ctx, "k1", time.Hour))
	require.NoError(t, cache.Put(ctx, "k1", time.Hour))

	found, err := cache.ContainsKey(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, cache.Len())
}

func TestContainsUnknownKeyCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache, _ := newTestCache(t, 10, store)

	found, err := cache.ContainsKey(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
	assert.False(t, store.has("missing"))
}

func TestExpiredEntryMisses(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestCache(t, 10, newMemoryStore())

	require.NoError(t, cache.Put(ctx, "k1", time.Minute))
	clock.Advance(time.Minute)

	found, err := cache.ContainsKey(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestEvictedEntryIsPersistedAndRestored(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache, _ := newTestCache(t, 2, store)

	require.NoError(t, cache.Put(ctx, "a", time.Hour))
	require.NoError(t, cache.Put(ctx, "b", time.Hour))
	require.NoError(t, cache.Put(ctx, "c", time.Hour))

	assert.Equal(t, 2, cache.Len())
	assert.True(t, store.has("a"), "evicted entry must reach storage")

	found, err := cache.ContainsKey(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, cache.Len(), "repopulation stays within capacity")
}

func TestWriteThroughAboveThreshold(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache, _ := newTestCache(t, 10, store)

	for i := 0; i < 8; i++ {
		require.NoError(t, cache.Put(ctx, fmt.Sprintf("k%d", i), time.Hour))
	}
	assert.Equal(t, 0, store.saves, "no storage writes at or below 80%")

	require.NoError(t, cache.Put(ctx, "k8", time.Hour))
	assert.True(t, store.has("k8"))
	assert.Equal(t, 1, store.saves)
}

func TestWriteThroughFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.saveErr = errors.New("db down")
	cache, _ := newTestCache(t, 1, store)

	require.NoError(t, cache.Put(ctx, "a", time.Hour))
	found, err := cache.ContainsKey(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStorageLookupErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.getErr = errors.New("timeout")
	cache, _ := newTestCache(t, 10, store)

	_, err := cache.ContainsKey(ctx, "a")
	require.Error(t, err)
}

func TestStoredExpiredEntryMisses(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache, clock := newTestCache(t, 10, store)
	store.entries["old"] = clock.Now().Add(-time.Second)

	found, err := cache.ContainsKey(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestInvalidArguments(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, 10, newMemoryStore())

	_, err := cache.ContainsKey(ctx, "")
	assert.True(t, util.IsValidation(err))
	assert.True(t, util.IsValidation(cache.Put(ctx, "", time.Hour)))
	assert.True(t, util.IsValidation(cache.Put(ctx, "k", 0)))

	_, err = New(0, newMemoryStore(), nil)
	assert.True(t, util.IsValidation(err))
}

func TestConcurrentPutsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache, _ := newTestCache(t, 50, store)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := Key("user", fmt.Sprint(w), fmt.Sprint(i))
				_ = cache.Put(ctx, key, time.Hour)
				_, _ = cache.ContainsKey(ctx, key)
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 50)
	for w := 0; w < 8; w++ {
		for i := 0; i < 100; i++ {
			found, err := cache.ContainsKey(ctx, Key("user", fmt.Sprint(w), fmt.Sprint(i)))
			require.NoError(t, err)
			assert.True(t, found)
		}
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "u1|t1|wf|SLA_WARNING|s2|sla-warning-job", Key("u1", "t1", "wf", "SLA_WARNING", "s2", "sla-warning-job"))
}
