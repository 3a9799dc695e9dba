package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (tenant_id, recipient_id, type, content, is_read)
        VALUES ($1,$2,$3,$4,FALSE)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.TenantID,
		notification.RecipientID,
		notification.Type,
		notification.Content,
	).Scan(&notification.ID, &notification.CreatedAt)
}
