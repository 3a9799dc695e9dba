package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// Pusher delivers a stored notification to the recipient's live session.
type Pusher interface {
	Push(ctx context.Context, notification domain.Notification) error
}

// NotificationService stores notifications and pushes them in real time.
type NotificationService struct {
	notifications repository.NotificationRepository
	tickets       repository.TicketRepository
	recipients    *RecipientResolver
	pusher        Pusher
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NotificationDependencies bundles collaborators of the notification service.
// Pusher may be nil, in which case notifications are only stored.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	TicketRepo       repository.TicketRepository
	Recipients       *RecipientResolver
	Pusher           Pusher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		tickets:       deps.TicketRepo,
		recipients:    deps.Recipients,
		pusher:        deps.Pusher,
		logger:        logger,
		metrics:       deps.Metrics,
	}
}

// Dispatch creates one notification per recipient, then pushes each one. Pushing
// is best-effort. Storage failures for some recipients do not stop the others;
// they are joined into the returned error alongside the stored notifications.
func (n *NotificationService) Dispatch(ctx context.Context, rc domain.RequestContext, recipientIDs []string, content string, kind domain.NotificationType) ([]domain.Notification, error) {
	if rc.TenantID == "" {
		return nil, util.NewValidationError("tenant is required", nil)
	}

	var (
		stored []domain.Notification
		errs   []error
	)
	for _, recipientID := range recipientIDs {
		notification := domain.Notification{
			TenantID:    rc.TenantID,
			RecipientID: recipientID,
			Type:        kind,
			Content:     content,
		}
		if err := n.notifications.Create(ctx, &notification); err != nil {
			errs = append(errs, fmt.Errorf("store notification for %s: %w", recipientID, err))
			continue
		}
		n.metrics.RecordNotification(kind)
		stored = append(stored, notification)
		n.push(ctx, notification)
	}
	return stored, errors.Join(errs...)
}

func (n *NotificationService) push(ctx context.Context, notification domain.Notification) {
	if n.pusher == nil {
		return
	}
	if err := n.pusher.Push(ctx, notification); err != nil {
		n.metrics.RecordPushFailure()
		n.logger.Warn("push notification failed",
			zap.String("notification_id", notification.ID),
			zap.String("recipient_id", notification.RecipientID),
			zap.Error(err))
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	ticket, err := n.tickets.GetByID(ctx, event.Context.TenantID, payload.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", payload.TicketID, err)
	}
	recipients, err := n.recipients.Resolve(ctx, event.Context, ticket)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		n.logger.Debug("ticket created without recipients", zap.String("ticket_id", ticket.ID))
		return nil
	}
	content, err := renderNotification("ticket_created", newNotificationView(ticket, nil))
	if err != nil {
		return err
	}
	_, err = n.Dispatch(ctx, event.Context, recipients, content, domain.NotificationTypeInfo)
	return err
}
