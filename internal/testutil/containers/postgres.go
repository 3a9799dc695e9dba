//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/persistence"
)

// PostgresContainer wraps a migrated Postgres instance.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	db        *persistence.Postgres
	dsn       string
}

// PostgresConfig holds configuration for Postgres container creation.
type PostgresConfig struct {
	// Image tag (default: "16-alpine")
	ImageTag string
	Database string
	Username string
	Password string
}

// DefaultPostgresConfig returns a PostgresConfig with test defaults.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		ImageTag: "16-alpine",
		Database: "helpdesk_test",
		Username: "helpdesk",
		Password: "helpdesk",
	}
}

// NewPostgresContainer starts Postgres, applies the embedded migrations and
// opens a pool. If config is nil, DefaultPostgresConfig() is used.
func NewPostgresContainer(ctx context.Context, config *PostgresConfig) (*PostgresContainer, error) {
	if config == nil {
		defaultCfg := DefaultPostgresConfig()
		config = &defaultCfg
	}

	pgContainer, err := postgres.Run(ctx, "postgres:"+config.ImageTag,
		postgres.WithDatabase(config.Database),
		postgres.WithUsername(config.Username),
		postgres.WithPassword(config.Password),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := persistence.RunMigrations(dsn, zap.NewNop()); err != nil {
		_ = pgContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := persistence.NewPostgres(ctx, pgConfig(dsn), "integration-test", zap.NewNop())
	if err != nil {
		_ = pgContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	return &PostgresContainer{container: pgContainer, db: db, dsn: dsn}, nil
}

func pgConfig(dsn string) config.PostgresConfig {
	return config.PostgresConfig{DSN: dsn, MaxConns: 5, ConnectAttempts: 5}
}

// GetPool returns the shared pool. Tests must not close it.
func (c *PostgresContainer) GetPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if c.db == nil || c.db.Pool == nil {
		t.Fatal("postgres pool is nil")
	}
	return c.db.Pool
}

// GetDSN returns the connection string of the container.
func (c *PostgresContainer) GetDSN() string {
	return c.dsn
}

// Reset truncates every application table.
func (c *PostgresContainer) Reset(ctx context.Context) error {
	const query = `
        TRUNCATE activity_logs, notifications, dedup_cache_entries,
            workflow_transition_history, tickets, workflow_transitions,
            workflow_states, workflows, team_members, teams, users CASCADE`
	if _, err := c.db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Terminate closes the pool and removes the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	c.db.Close()
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}
