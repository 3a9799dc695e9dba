package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
)

const purgeTimeout = time.Minute

// SLARunner runs one SLA scan.
type SLARunner interface {
	Run(ctx context.Context) (service.ScanResult, error)
}

// DedupPurger removes dedup rows that expired before a point in time.
type DedupPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs the periodic jobs of the service.
type Scheduler struct {
	cron    *cron.Cron
	scanner SLARunner
	purger  DedupPurger
	cfg     *config.Config
	logger  *zap.Logger
	ctx     context.Context
}

// NewScheduler registers the SLA scan and the dedup purge.
func NewScheduler(ctx context.Context, cfg *config.Config, scanner SLARunner, purger DedupPurger, logger *zap.Logger) (*Scheduler, error) {
	cronLogger := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		scanner: scanner,
		purger:  purger,
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
	}
	if _, err := s.cron.AddFunc(cfg.SLA.Schedule, s.runSLAScan); err != nil {
		return nil, fmt.Errorf("schedule sla scan %q: %w", cfg.SLA.Schedule, err)
	}
	if s.purger != nil {
		if _, err := s.cron.AddFunc(cfg.Dedup.PurgeSchedule, s.runDedupPurge); err != nil {
			return nil, fmt.Errorf("schedule dedup purge %q: %w", cfg.Dedup.PurgeSchedule, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("sla_schedule", s.cfg.SLA.Schedule),
		zap.String("dedup_purge_schedule", s.cfg.Dedup.PurgeSchedule))
}

// Stop prevents new runs and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) runSLAScan() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.SLA.LockTTL)
	defer cancel()
	if _, err := s.scanner.Run(ctx); err != nil {
		s.logger.Error("sla scan failed", zap.Error(err))
	}
}

func (s *Scheduler) runDedupPurge() {
	ctx, cancel := context.WithTimeout(s.ctx, purgeTimeout)
	defer cancel()
	removed, err := s.purger.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("dedup purge failed", zap.Error(err))
		return
	}
	s.logger.Info("dedup purge completed", zap.Int64("removed", removed))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
