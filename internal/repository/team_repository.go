package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// TeamRepository reads teams and their membership.
type TeamRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Team, error)
	ListManagerIDs(ctx context.Context, tenantID, teamID string) ([]string, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Team, error) {
	const query = `
        SELECT id, tenant_id, name, description, is_active, created_at, updated_at
        FROM teams WHERE tenant_id=$1 AND id=$2`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&team.ID,
		&team.TenantID,
		&team.Name,
		&team.Description,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) ListManagerIDs(ctx context.Context, tenantID, teamID string) ([]string, error) {
	const query = `
        SELECT m.user_id
        FROM team_members m
        JOIN teams t ON t.id = m.team_id
        WHERE t.tenant_id=$1 AND m.team_id=$2 AND m.role=$3
        ORDER BY m.user_id`
	rows, err := r.pool.Query(ctx, query, tenantID, teamID, domain.TeamRoleManager)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
