package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
)

const enqueueTimeout = 5 * time.Second

// EventConsumer feeds events received on NATS into the in-process dispatcher.
type EventConsumer struct {
	conn       *nats.Conn
	dispatcher events.Dispatcher
	subject    string
	queue      string
	logger     *zap.Logger
	metrics    *observability.Metrics
	sub        *nats.Subscription
}

// NewEventConsumer listens on <prefix>.events.<tenant>.> as part of queue group.
func NewEventConsumer(conn *nats.Conn, dispatcher events.Dispatcher, prefix, queue string, logger *zap.Logger, metrics *observability.Metrics) *EventConsumer {
	return &EventConsumer{
		conn:       conn,
		dispatcher: dispatcher,
		subject:    EventSubject(prefix),
		queue:      queue,
		logger:     logger,
		metrics:    metrics,
	}
}

// EventSubject is the wildcard subject carrying inbound events for every tenant.
func EventSubject(prefix string) string {
	return fmt.Sprintf("%s.events.*.>", prefix)
}

// Start subscribes. Messages are handled until Stop or until ctx is done.
func (c *EventConsumer) Start(ctx context.Context) error {
	sub, err := c.conn.QueueSubscribe(c.subject, c.queue, func(msg *nats.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	c.sub = sub
	c.logger.Info("event consumer started", zap.String("subject", c.subject), zap.String("queue", c.queue))
	return nil
}

// Stop drains the subscription.
func (c *EventConsumer) Stop() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Drain(); err != nil {
		c.logger.Warn("drain event subscription failed", zap.Error(err))
	}
}

func (c *EventConsumer) handle(ctx context.Context, msg *nats.Msg) {
	event, err := events.DecodeEnvelope(msg.Data)
	if err != nil {
		c.metrics.RecordEvent("unknown", "rejected")
		c.logger.Warn("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()
	if err := c.dispatcher.Publish(enqueueCtx, event); err != nil {
		c.metrics.RecordEvent(string(event.Type), "dropped")
		c.logger.Error("enqueue event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
