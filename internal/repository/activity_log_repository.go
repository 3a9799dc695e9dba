package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// ActivityLogRepository stores rendered audit diffs.
type ActivityLogRepository interface {
	Create(ctx context.Context, log *domain.ActivityLog) error
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, log *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (tenant_id, entity_type, entity_id, content, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		log.TenantID,
		log.EntityType,
		log.EntityID,
		log.Content,
		log.CreatedBy,
	).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
}
