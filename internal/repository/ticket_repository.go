package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// TicketRepository reads tickets owned by the ticket service.
type TicketRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, tenant_id, external_key, workflow_id, current_state_id, team_id, assignee_id,
               title, description, priority, tags, created_at, updated_at
        FROM tickets WHERE tenant_id=$1 AND id=$2`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.ExternalKey,
		&ticket.WorkflowID,
		&ticket.CurrentStateID,
		&ticket.TeamID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
