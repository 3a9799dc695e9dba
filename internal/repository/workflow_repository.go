package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// WorkflowRepository reads workflow definitions.
type WorkflowRepository interface {
	// FindTransition returns pgx.ErrNoRows when no definition matches. An empty
	// eventName matches any event between the two states.
	FindTransition(ctx context.Context, workflowID, sourceStateID, targetStateID, eventName string) (*domain.WorkflowTransition, error)
	GetState(ctx context.Context, id string) (*domain.WorkflowState, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository builds repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

func (r *workflowRepository) FindTransition(ctx context.Context, workflowID, sourceStateID, targetStateID, eventName string) (*domain.WorkflowTransition, error) {
	const query = `
        SELECT id, workflow_id, source_state_id, target_state_id, event_name, sla_duration_seconds, escalation_level
        FROM workflow_transitions
        WHERE workflow_id=$1 AND source_state_id=$2 AND target_state_id=$3 AND ($4 = '' OR event_name=$4)
        ORDER BY event_name
        LIMIT 1`
	var (
		transition domain.WorkflowTransition
		slaSeconds *int64
	)
	if err := r.pool.QueryRow(ctx, query, workflowID, sourceStateID, targetStateID, eventName).Scan(
		&transition.ID,
		&transition.WorkflowID,
		&transition.SourceStateID,
		&transition.TargetStateID,
		&transition.EventName,
		&slaSeconds,
		&transition.EscalationLevel,
	); err != nil {
		return nil, err
	}
	if slaSeconds != nil {
		d := time.Duration(*slaSeconds) * time.Second
		transition.SLADuration = &d
	}
	return &transition, nil
}

func (r *workflowRepository) GetState(ctx context.Context, id string) (*domain.WorkflowState, error) {
	const query = `
        SELECT id, workflow_id, name, is_terminal
        FROM workflow_states WHERE id=$1`
	var state domain.WorkflowState
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&state.ID,
		&state.WorkflowID,
		&state.Name,
		&state.IsTerminal,
	); err != nil {
		return nil, err
	}
	return &state, nil
}
