package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// DedupRepository is the durable tier of the deduplication cache.
type DedupRepository interface {
	Save(ctx context.Context, entry domain.DeduplicationCacheEntry) error
	Get(ctx context.Context, key string) (*domain.DeduplicationCacheEntry, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type dedupRepository struct {
	pool *pgxpool.Pool
}

// NewDedupRepository builds repository.
func NewDedupRepository(pool *pgxpool.Pool) DedupRepository {
	return &dedupRepository{pool: pool}
}

// Save upserts the entry, never shortening an expiry already stored.
func (r *dedupRepository) Save(ctx context.Context, entry domain.DeduplicationCacheEntry) error {
	const query = `
        INSERT INTO dedup_cache_entries (cache_key, expires_at)
        VALUES ($1,$2)
        ON CONFLICT (cache_key) DO UPDATE
            SET expires_at = GREATEST(dedup_cache_entries.expires_at, EXCLUDED.expires_at)`
	_, err := r.pool.Exec(ctx, query, entry.Key, entry.ExpiresAt)
	return err
}

func (r *dedupRepository) Get(ctx context.Context, key string) (*domain.DeduplicationCacheEntry, error) {
	const query = `SELECT cache_key, expires_at FROM dedup_cache_entries WHERE cache_key=$1`
	var entry domain.DeduplicationCacheEntry
	if err := r.pool.QueryRow(ctx, query, key).Scan(&entry.Key, &entry.ExpiresAt); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *dedupRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM dedup_cache_entries WHERE expires_at <= $1`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
