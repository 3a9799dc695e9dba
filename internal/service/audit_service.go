package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/audit"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// ActivitySink receives persisted activity logs, e.g. for an outbound stream.
type ActivitySink interface {
	PublishActivity(ctx context.Context, log domain.ActivityLog) error
}

// AuditService turns entity updates into activity logs.
type AuditService struct {
	logs       repository.ActivityLogRepository
	registries audit.Set
	sink       ActivitySink
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuditDependencies bundles collaborators of the audit service. Sink is optional.
type AuditDependencies struct {
	ActivityLogRepo repository.ActivityLogRepository
	Registries      audit.Set
	Sink            ActivitySink
	Logger          *zap.Logger
	Metrics         *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		logs:       deps.ActivityLogRepo,
		registries: deps.Registries,
		sink:       deps.Sink,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// RecordUpdate diffs the snapshots and stores an activity log. It returns nil
// without storing anything when no audited field changed.
func (a *AuditService) RecordUpdate(ctx context.Context, rc domain.RequestContext, previous, updated domain.Auditable) (*domain.ActivityLog, error) {
	if previous == nil || previous.IsZero() || updated == nil || updated.IsZero() {
		return nil, util.NewValidationError("both entity snapshots are required", nil)
	}
	if previous.EntityID() != updated.EntityID() {
		return nil, util.NewValidationError("snapshots describe different entities", map[string]any{
			"previous": previous.EntityID(),
			"updated":  updated.EntityID(),
		})
	}
	reg, ok := a.registries[updated.EntityType()]
	if !ok {
		return nil, util.NewValidationError("no field registry for entity type", map[string]any{"entity_type": updated.EntityType()})
	}
	changes, err := audit.FindChanges(ctx, rc, previous, updated, reg)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}
	content, err := audit.GenerateLog(changes)
	if err != nil {
		return nil, fmt.Errorf("render activity log: %w", err)
	}

	log := &domain.ActivityLog{
		TenantID:   rc.TenantID,
		EntityType: updated.EntityType(),
		EntityID:   updated.EntityID(),
		Content:    content,
		CreatedBy:  rc.CurrentUser,
	}
	if err := a.logs.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("store activity log: %w", err)
	}
	a.metrics.RecordActivityLog(log.EntityType)

	if a.sink != nil {
		if err := a.sink.PublishActivity(ctx, *log); err != nil {
			a.logger.Warn("publish activity log failed", zap.String("activity_log_id", log.ID), zap.Error(err))
		}
	}
	return log, nil
}

// RegisterHandlers subscribes to entity updates.
func (a *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventEntityUpdated, a.handleEntityUpdated)
}

// handleEntityUpdated never fails the event; audit problems are only logged.
func (a *AuditService) handleEntityUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EntityUpdatedPayload)
	if !ok {
		a.logger.Error("unexpected entity updated payload", zap.String("event_id", event.ID))
		return nil
	}
	log, err := a.RecordUpdate(ctx, event.Context, payload.Previous, payload.Updated)
	if err != nil {
		a.logger.Error("record activity log failed",
			zap.String("event_id", event.ID),
			zap.String("tenant_id", event.Context.TenantID),
			zap.String("entity_type", string(payload.EntityType)),
			zap.Error(err))
		return nil
	}
	if log != nil {
		a.logger.Debug("activity log recorded", zap.String("activity_log_id", log.ID))
	}
	return nil
}
