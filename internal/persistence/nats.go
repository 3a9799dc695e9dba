package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
)

// NATS wraps the connection used for inbound events and notification pushes.
type NATS struct {
	Conn *nats.Conn
}

// NewNATS connects to the configured server and keeps reconnecting on loss.
func NewNATS(cfg config.NATSConfig, appName string, logger *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", nc.ConnectedUrl()))
	return &NATS{Conn: nc}, nil
}

// Close drains subscriptions and closes the connection.
func (n *NATS) Close() {
	if n == nil || n.Conn == nil {
		return
	}
	if err := n.Conn.Drain(); err != nil {
		n.Conn.Close()
	}
}

// Ping verifies the connection is usable.
func (n *NATS) Ping(ctx context.Context) error {
	if n == nil || n.Conn == nil {
		return errors.New("nats connection not configured")
	}
	if !n.Conn.IsConnected() {
		return fmt.Errorf("nats status %s", n.Conn.Status())
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return n.Conn.Flush()
	}
	return n.Conn.FlushTimeout(time.Until(deadline))
}
