package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// UserRepository defines read access to users.
type UserRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.User, error) {
	const query = `
        SELECT id, tenant_id, name, email, created_at, updated_at
        FROM users WHERE tenant_id=$1 AND id=$2`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&user.ID,
		&user.TenantID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
