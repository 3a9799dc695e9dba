package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// TransitionService records ticket state changes and stamps their SLA.
type TransitionService struct {
	tickets   repository.TicketRepository
	workflows repository.WorkflowRepository
	history   repository.TransitionHistoryRepository
	logger    *zap.Logger
	now       func() time.Time
}

// TransitionDependencies bundles repositories for the transition service.
type TransitionDependencies struct {
	TicketRepo   repository.TicketRepository
	WorkflowRepo repository.WorkflowRepository
	HistoryRepo  repository.TransitionHistoryRepository
	Logger       *zap.Logger
	Clock        func() time.Time
}

// TransitionInput describes one state change. EventName is optional.
type TransitionInput struct {
	TicketID      string
	SourceStateID string
	TargetStateID string
	EventName     string
}

// NewTransitionService wires the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	s := &TransitionService{
		tickets:   deps.TicketRepo,
		workflows: deps.WorkflowRepo,
		history:   deps.HistoryRepo,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RecordTransition writes one history row. When a transition definition matches,
// the SLA due date is now plus its duration; otherwise it stays nil.
func (s *TransitionService) RecordTransition(ctx context.Context, rc domain.RequestContext, input TransitionInput) (*domain.WorkflowTransitionHistory, error) {
	if rc.TenantID == "" || input.TicketID == "" || input.TargetStateID == "" {
		return nil, util.NewValidationError("tenant, ticket and target state are required", map[string]any{
			"ticket_id":       input.TicketID,
			"target_state_id": input.TargetStateID,
		})
	}

	ticket, err := s.tickets.GetByID(ctx, rc.TenantID, input.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": input.TicketID})
		}
		return nil, fmt.Errorf("load ticket %s: %w", input.TicketID, err)
	}

	now := s.now().UTC()
	row := &domain.WorkflowTransitionHistory{
		TenantID:            rc.TenantID,
		TicketID:            ticket.ID,
		WorkflowID:          ticket.WorkflowID,
		FromStateID:         input.SourceStateID,
		ToStateID:           input.TargetStateID,
		EventName:           input.EventName,
		TransitionTimestamp: now,
	}

	definition, err := s.workflows.FindTransition(ctx, ticket.WorkflowID, input.SourceStateID, input.TargetStateID, input.EventName)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s.logger.Debug("no transition definition, recording without SLA",
			zap.String("ticket_id", ticket.ID),
			zap.String("from_state_id", input.SourceStateID),
			zap.String("to_state_id", input.TargetStateID))
	case err != nil:
		return nil, fmt.Errorf("find transition: %w", err)
	default:
		row.EventName = definition.EventName
		row.EscalationLevel = definition.EscalationLevel
		if definition.SLADuration != nil {
			due := now.Add(*definition.SLADuration)
			row.SLADueDate = &due
		}
	}

	if err := s.history.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create transition history: %w", err)
	}
	s.logger.Info("transition recorded",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ticket_id", row.TicketID),
		zap.String("to_state_id", row.ToStateID),
		zap.Bool("has_sla", row.HasSLA()))
	return row, nil
}

// RegisterHandlers subscribes to state transition events.
func (s *TransitionService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketStateTransitioned, s.handleStateTransitioned)
}

func (s *TransitionService) handleStateTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStateTransitionedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	_, err := s.RecordTransition(ctx, event.Context, TransitionInput{
		TicketID:      payload.TicketID,
		SourceStateID: payload.SourceStateID,
		TargetStateID: payload.TargetStateID,
		EventName:     payload.EventName,
	})
	return err
}
