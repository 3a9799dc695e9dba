package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-workflow/internal/api/http"
	"github.com/spec-kit/helpdesk-workflow/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-workflow/internal/audit"
	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/dedup"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/lock"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/persistence"
	"github.com/spec-kit/helpdesk-workflow/internal/publisher"
	"github.com/spec-kit/helpdesk-workflow/internal/realtime"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
	"github.com/spec-kit/helpdesk-workflow/internal/worker"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	nc, err := persistence.NewNATS(cfg.NATS, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect nats", zap.Error(err))
	}
	defer nc.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)
	historyRepo := repository.NewTransitionHistoryRepository(pool)
	dedupRepo := repository.NewDedupRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)

	dedupCache, err := dedup.New(cfg.Dedup.Capacity, dedupRepo, logger.Named("dedup"),
		dedup.WithMetrics(metrics),
		dedup.WithWriteThroughRatio(cfg.Dedup.WriteThroughRatio))
	if err != nil {
		logger.Fatal("failed to build dedup cache", zap.Error(err))
	}

	var sink service.ActivitySink
	if cfg.Kafka.Enabled() {
		activityPublisher, err := publisher.NewActivityPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.ActivityTopic, logger)
		if err != nil {
			logger.Fatal("failed to create activity publisher", zap.Error(err))
		}
		defer activityPublisher.Close()
		sink = activityPublisher
	}

	recipients := service.NewRecipientResolver(teamRepo)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		TicketRepo:       ticketRepo,
		Recipients:       recipients,
		Pusher:           realtime.NewNATSPusher(nc.Conn, cfg.NATS.SubjectPrefix),
		Logger:           logger.Named("notifications"),
		Metrics:          metrics,
	})
	transitionService := service.NewTransitionService(service.TransitionDependencies{
		TicketRepo:   ticketRepo,
		WorkflowRepo: workflowRepo,
		HistoryRepo:  historyRepo,
		Logger:       logger.Named("transitions"),
	})
	names := service.NewDisplayNames(userRepo, teamRepo, workflowRepo)
	auditService := service.NewAuditService(service.AuditDependencies{
		ActivityLogRepo: activityRepo,
		Registries:      audit.NewSet(service.TicketRegistry(names), service.TeamRegistry()),
		Sink:            sink,
		Logger:          logger.Named("audit"),
		Metrics:         metrics,
	})
	scanner := service.NewSLAScanner(service.SLAScannerDependencies{
		Locker:      lock.NewRedisLocker(redis.Client),
		HistoryRepo: historyRepo,
		TicketRepo:  ticketRepo,
		Recipients:  recipients,
		Notifier:    notificationService,
		Dedup:       dedupCache,
		Config:      cfg.SLA,
		Logger:      logger.Named("sla-scanner"),
		Metrics:     metrics,
	})

	dispatcher := events.NewQueueDispatcher(cfg.Events.Workers, cfg.Events.QueueSize, logger.Named("events"), metrics)
	worker.RegisterEventHandlers(dispatcher, transitionService, notificationService, auditService)
	dispatcher.Start()

	consumer := worker.NewEventConsumer(nc.Conn, dispatcher, cfg.NATS.SubjectPrefix, cfg.NATS.QueueGroup, logger.Named("consumer"), metrics)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("failed to start event consumer", zap.Error(err))
	}

	scheduler, err := worker.NewScheduler(ctx, cfg, scanner, dedupRepo, logger.Named("scheduler"))
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, requestTimeout)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
			"nats":     nc,
		}),
		Gatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	consumer.Stop()
	scheduler.Stop(shutdownCtx)
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("event queue did not drain", zap.Error(err))
	}
	cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
