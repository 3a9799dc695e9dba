package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Kafka    KafkaConfig
	Logger   LoggerConfig
	Dedup    DedupConfig
	SLA      SLAConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"helpdesk-workflow"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Host    string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port    string `env:"APP_PORT" envDefault:"8080"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations   bool          `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleTime time.Duration `env:"POSTGRES_CONN_MAX_IDLE_TIME" envDefault:"30s"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnectAttempts int           `env:"POSTGRES_CONNECT_ATTEMPTS" envDefault:"5"`
}

// RedisConfig holds Redis connection values. Addr may list several nodes.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	MasterName  string        `env:"REDIS_MASTER_NAME"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
}

// NATSConfig configures inbound events and real-time pushes.
type NATSConfig struct {
	URL           string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"helpdesk"`
	QueueGroup    string `env:"NATS_QUEUE_GROUP" envDefault:"helpdesk-workflow"`
}

// KafkaConfig configures the optional activity log stream. Empty brokers disable it.
type KafkaConfig struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	ActivityTopic    string `env:"KAFKA_ACTIVITY_TOPIC" envDefault:"helpdesk.activity-logs"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// DedupConfig sizes the in-memory tier of the deduplication cache.
type DedupConfig struct {
	Capacity          int     `env:"DEDUP_CAPACITY" envDefault:"500"`
	WriteThroughRatio float64 `env:"DEDUP_WRITE_THROUGH_RATIO" envDefault:"0.8"`
	PurgeSchedule     string  `env:"DEDUP_PURGE_SCHEDULE" envDefault:"@hourly"`
}

// SLAConfig drives the SLA violation scanner.
type SLAConfig struct {
	Schedule         string        `env:"SLA_SCAN_SCHEDULE" envDefault:"*/15 * * * *"`
	WarningThreshold time.Duration `env:"SLA_WARNING_THRESHOLD" envDefault:"30m"`
	BreachLookback   time.Duration `env:"SLA_BREACH_LOOKBACK" envDefault:"24h"`
	NotificationTTL  time.Duration `env:"SLA_NOTIFICATION_TTL" envDefault:"24h"`
	LockName         string        `env:"SLA_LOCK_NAME" envDefault:"sla-violation-scanner"`
	LockTTL          time.Duration `env:"SLA_LOCK_TTL" envDefault:"10m"`
	LockWait         time.Duration `env:"SLA_LOCK_WAIT" envDefault:"5s"`
}

// EventsConfig sizes the in-process event queue.
type EventsConfig struct {
	Workers   int `env:"EVENT_WORKERS" envDefault:"4"`
	QueueSize int `env:"EVENT_QUEUE_SIZE" envDefault:"256"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Dedup.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("DEDUP_CAPACITY must be positive, got %d", c.Dedup.Capacity))
	}
	if c.Dedup.WriteThroughRatio <= 0 || c.Dedup.WriteThroughRatio > 1 {
		errs = append(errs, fmt.Errorf("DEDUP_WRITE_THROUGH_RATIO must be in (0,1], got %v", c.Dedup.WriteThroughRatio))
	}
	if c.SLA.WarningThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SLA_WARNING_THRESHOLD must be positive, got %s", c.SLA.WarningThreshold))
	}
	if c.SLA.NotificationTTL <= 0 {
		errs = append(errs, fmt.Errorf("SLA_NOTIFICATION_TTL must be positive, got %s", c.SLA.NotificationTTL))
	}
	if c.SLA.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("SLA_LOCK_TTL must be positive, got %s", c.SLA.LockTTL))
	}
	if c.SLA.LockWait <= 0 {
		errs = append(errs, fmt.Errorf("SLA_LOCK_WAIT must be positive, got %s", c.SLA.LockWait))
	}
	if c.Events.Workers <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_WORKERS must be positive, got %d", c.Events.Workers))
	}
	if c.Events.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("EVENT_QUEUE_SIZE must not be negative, got %d", c.Events.QueueSize))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Enabled reports whether an activity log stream is configured.
func (k KafkaConfig) Enabled() bool {
	return k.BootstrapServers != ""
}
