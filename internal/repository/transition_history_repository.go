package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// TransitionHistoryRepository stores immutable workflow transition rows.
type TransitionHistoryRepository interface {
	Create(ctx context.Context, history *domain.WorkflowTransitionHistory) error
	ListByTicket(ctx context.Context, tenantID, ticketID string) ([]domain.WorkflowTransitionHistory, error)
	// ListOpenSLADue returns rows whose SLA due date lies in [from, to] and whose
	// ticket still sits, non-terminal, in the row's target state.
	ListOpenSLADue(ctx context.Context, from, to time.Time) ([]domain.WorkflowTransitionHistory, error)
}

type transitionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTransitionHistoryRepository builds repository.
func NewTransitionHistoryRepository(pool *pgxpool.Pool) TransitionHistoryRepository {
	return &transitionHistoryRepository{pool: pool}
}

const historyColumns = `h.id, h.tenant_id, h.ticket_id, h.workflow_id, h.from_state_id, h.to_state_id,
               h.event_name, h.transition_timestamp, h.sla_due_date, h.escalation_level`

func (r *transitionHistoryRepository) Create(ctx context.Context, history *domain.WorkflowTransitionHistory) error {
	const query = `
        INSERT INTO workflow_transition_history (tenant_id, ticket_id, workflow_id, from_state_id, to_state_id,
            event_name, transition_timestamp, sla_due_date, escalation_level)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		history.TenantID,
		history.TicketID,
		history.WorkflowID,
		history.FromStateID,
		history.ToStateID,
		history.EventName,
		history.TransitionTimestamp,
		history.SLADueDate,
		history.EscalationLevel,
	).Scan(&history.ID)
}

func (r *transitionHistoryRepository) ListByTicket(ctx context.Context, tenantID, ticketID string) ([]domain.WorkflowTransitionHistory, error) {
	const query = `
        SELECT ` + historyColumns + `
        FROM workflow_transition_history h
        WHERE h.tenant_id=$1 AND h.ticket_id=$2
        ORDER BY h.transition_timestamp ASC`
	rows, err := r.pool.Query(ctx, query, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func (r *transitionHistoryRepository) ListOpenSLADue(ctx context.Context, from, to time.Time) ([]domain.WorkflowTransitionHistory, error) {
	const query = `
        SELECT ` + historyColumns + `
        FROM workflow_transition_history h
        JOIN tickets t ON t.id = h.ticket_id
        JOIN workflow_states s ON s.id = t.current_state_id
        WHERE h.sla_due_date IS NOT NULL
          AND h.sla_due_date BETWEEN $1 AND $2
          AND t.current_state_id = h.to_state_id
          AND s.is_terminal = FALSE
        ORDER BY h.sla_due_date ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]domain.WorkflowTransitionHistory, error) {
	var result []domain.WorkflowTransitionHistory
	for rows.Next() {
		var history domain.WorkflowTransitionHistory
		if err := rows.Scan(
			&history.ID,
			&history.TenantID,
			&history.TicketID,
			&history.WorkflowID,
			&history.FromStateID,
			&history.ToStateID,
			&history.EventName,
			&history.TransitionTimestamp,
			&history.SLADueDate,
			&history.EscalationLevel,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
