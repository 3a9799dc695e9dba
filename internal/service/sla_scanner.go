package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/dedup"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/lock"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

// Job names are part of every dedup key the scanner writes.
const (
	SLAWarningJob    = "sla-warning-job"
	SLABreachJob     = "sla-breach-job"
	SLAEscalationJob = "sla-escalation-job"

	lockReleaseTimeout = 5 * time.Second
)

// DedupCache is the subset of the dedup cache used by the scanner.
type DedupCache interface {
	ContainsKey(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, ttl time.Duration) error
}

// Notifier dispatches notifications.
type Notifier interface {
	Dispatch(ctx context.Context, rc domain.RequestContext, recipientIDs []string, content string, kind domain.NotificationType) ([]domain.Notification, error)
}

// ScanResult summarizes one scanner run.
type ScanResult struct {
	Skipped      bool
	Rows         int
	Notified     int
	Deduplicated int
	Failed       int
}

// SLAScanner warns about SLAs that are about to expire and reports breaches.
type SLAScanner struct {
	locker     lock.Locker
	history    repository.TransitionHistoryRepository
	tickets    repository.TicketRepository
	recipients *RecipientResolver
	notifier   Notifier
	dedup      DedupCache
	cfg        config.SLAConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// SLAScannerDependencies bundles collaborators of the scanner.
type SLAScannerDependencies struct {
	Locker      lock.Locker
	HistoryRepo repository.TransitionHistoryRepository
	TicketRepo  repository.TicketRepository
	Recipients  *RecipientResolver
	Notifier    Notifier
	Dedup       DedupCache
	Config      config.SLAConfig
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Clock       func() time.Time
}

// NewSLAScanner wires the scanner.
func NewSLAScanner(deps SLAScannerDependencies) *SLAScanner {
	s := &SLAScanner{
		locker:     deps.Locker,
		history:    deps.HistoryRepo,
		tickets:    deps.TicketRepo,
		recipients: deps.Recipients,
		notifier:   deps.Notifier,
		dedup:      deps.Dedup,
		cfg:        deps.Config,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type scanPass struct {
	job      string
	kind     domain.NotificationType
	template string
}

var (
	warningPass    = scanPass{job: SLAWarningJob, kind: domain.NotificationTypeSLAWarning, template: "sla_warning"}
	breachPass     = scanPass{job: SLABreachJob, kind: domain.NotificationTypeSLABreach, template: "sla_breach"}
	escalationPass = scanPass{job: SLAEscalationJob, kind: domain.NotificationTypeEscalationNotice, template: "escalation"}
)

// Run performs one scan. When another instance holds the lock the run is skipped
// and reported with Skipped set; that is not an error.
func (s *SLAScanner) Run(ctx context.Context) (ScanResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	held, err := s.locker.Acquire(lockCtx, s.cfg.LockName, s.cfg.LockTTL)
	cancel()
	if err != nil {
		if !errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Warn("sla scan lock unavailable", zap.Error(err))
		} else {
			s.logger.Debug("sla scan skipped, lock held elsewhere")
		}
		s.metrics.RecordScan(observability.ScanSkipped)
		return ScanResult{Skipped: true}, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
		defer cancel()
		if err := held.Release(releaseCtx); err != nil {
			s.logger.Warn("release sla scan lock failed", zap.Error(err))
		}
	}()

	var result ScanResult
	now := s.now().UTC()

	rows, err := s.history.ListOpenSLADue(ctx, now, now.Add(s.cfg.WarningThreshold))
	if err != nil {
		s.metrics.RecordScan(observability.ScanFailed)
		return result, fmt.Errorf("list rows due soon: %w", err)
	}
	for i := range rows {
		s.scanRow(ctx, &rows[i], warningPass, &result)
	}

	if s.cfg.BreachLookback > 0 {
		rows, err = s.history.ListOpenSLADue(ctx, now.Add(-s.cfg.BreachLookback), now)
		if err != nil {
			s.metrics.RecordScan(observability.ScanFailed)
			return result, fmt.Errorf("list breached rows: %w", err)
		}
		for i := range rows {
			if !rows[i].SLADueDate.Before(now) {
				continue
			}
			s.scanRow(ctx, &rows[i], breachPass, &result)
		}
	}

	s.metrics.RecordScan(observability.ScanCompleted)
	s.logger.Info("sla scan completed",
		zap.Int("rows", result.Rows),
		zap.Int("notified", result.Notified),
		zap.Int("deduplicated", result.Deduplicated),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *SLAScanner) scanRow(ctx context.Context, row *domain.WorkflowTransitionHistory, pass scanPass, result *ScanResult) {
	result.Rows++
	rc := domain.SystemContext(row.TenantID)

	ticket, err := s.tickets.GetByID(ctx, row.TenantID, row.TicketID)
	if err != nil {
		result.Failed++
		s.logger.Error("load ticket for sla scan failed",
			zap.String("ticket_id", row.TicketID), zap.String("job", pass.job), zap.Error(err))
		return
	}
	recipients, err := s.recipients.Resolve(ctx, rc, ticket)
	if err != nil {
		result.Failed++
		s.logger.Error("resolve sla recipients failed",
			zap.String("ticket_id", row.TicketID), zap.String("job", pass.job), zap.Error(err))
		return
	}
	s.notifyAll(ctx, rc, ticket, row, recipients, pass, result)

	if pass.job == SLABreachJob && row.EscalationLevel != nil && *row.EscalationLevel > 0 && deref(ticket.AssigneeID) != "" {
		managers, err := s.recipients.Managers(ctx, rc, ticket)
		if err != nil {
			result.Failed++
			s.logger.Error("resolve escalation recipients failed",
				zap.String("ticket_id", row.TicketID), zap.Error(err))
			return
		}
		s.notifyAll(ctx, rc, ticket, row, managers, escalationPass, result)
	}
}

func (s *SLAScanner) notifyAll(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, row *domain.WorkflowTransitionHistory, recipients []string, pass scanPass, result *ScanResult) {
	if len(recipients) == 0 {
		return
	}
	content, err := renderNotification(pass.template, newNotificationView(ticket, row))
	if err != nil {
		result.Failed++
		s.logger.Error("render sla notification failed", zap.String("ticket_id", row.TicketID), zap.Error(err))
		return
	}
	for _, recipientID := range recipients {
		s.notifyOne(ctx, rc, row, recipientID, content, pass, result)
	}
}

func (s *SLAScanner) notifyOne(ctx context.Context, rc domain.RequestContext, row *domain.WorkflowTransitionHistory, recipientID, content string, pass scanPass, result *ScanResult) {
	key := dedup.Key(recipientID, row.TicketID, row.WorkflowID, row.EventName, row.ToStateID, pass.job)
	fields := []zap.Field{
		zap.String("tenant_id", row.TenantID),
		zap.String("ticket_id", row.TicketID),
		zap.String("recipient_id", recipientID),
		zap.String("job", pass.job),
	}

	seen, err := s.dedup.ContainsKey(ctx, key)
	if err != nil {
		result.Failed++
		s.logger.Error("dedup lookup failed", append(fields, zap.Error(err))...)
		return
	}
	if seen {
		result.Deduplicated++
		return
	}

	if _, err := s.notifier.Dispatch(ctx, rc, []string{recipientID}, content, pass.kind); err != nil {
		result.Failed++
		s.logger.Error("dispatch sla notification failed", append(fields, zap.Error(err))...)
		return
	}
	if err := s.dedup.Put(ctx, key, s.cfg.NotificationTTL); err != nil {
		s.logger.Warn("record sla notification in dedup cache failed", append(fields, zap.Error(err))...)
	}
	result.Notified++
	s.logger.Info("sla notification sent", append(fields, zap.String("type", string(pass.kind)))...)
}
