// Package publisher streams persisted activity logs to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

const (
	deliveryTimeout = 10 * time.Second
	flushTimeoutMs  = 15 * 1000
)

// ActivityPublisher produces activity logs keyed by entity id.
type ActivityPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewActivityPublisher creates the Kafka producer.
func NewActivityPublisher(bootstrapServers, topic string, logger *zap.Logger) (*ActivityPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("activity log kafka producer created", zap.String("topic", topic))
	return &ActivityPublisher{producer: p, topic: topic, logger: logger}, nil
}

type activityMessage struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Content    string            `json:"content"`
	CreatedBy  string            `json:"created_by"`
	CreatedAt  time.Time         `json:"created_at"`
}

// PublishActivity implements service.ActivitySink and waits for delivery.
func (p *ActivityPublisher) PublishActivity(ctx context.Context, log domain.ActivityLog) error {
	payload, err := json.Marshal(activityMessage{
		ID:         log.ID,
		TenantID:   log.TenantID,
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		Content:    log.Content,
		CreatedBy:  log.CreatedBy,
		CreatedAt:  log.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activity log: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(log.EntityID),
		Value:          payload,
		Headers:        []kafka.Header{{Key: "tenant_id", Value: []byte(log.TenantID)}},
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending messages and closes the producer.
func (p *ActivityPublisher) Close() {
	p.logger.Info("closing activity log kafka producer")
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		p.logger.Warn("activity log messages not delivered before close", zap.Int("remaining", remaining))
	}
	p.producer.Close()
}
