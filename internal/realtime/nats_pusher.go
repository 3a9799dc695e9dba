// Package realtime pushes stored notifications to connected clients over NATS.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/k3a/html2text"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

const previewLimit = 140

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON body delivered to a recipient's subject.
type Message struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Content   string                  `json:"content"`
	Preview   string                  `json:"preview"`
	CreatedAt time.Time               `json:"created_at"`
}

// NATSPusher publishes each notification on <prefix>.notifications.<tenant>.<user>.
type NATSPusher struct {
	conn   Publisher
	prefix string
}

// NewNATSPusher builds a pusher publishing under prefix.
func NewNATSPusher(conn Publisher, prefix string) *NATSPusher {
	return &NATSPusher{conn: conn, prefix: prefix}
}

// Push implements service.Pusher.
func (p *NATSPusher) Push(_ context.Context, notification domain.Notification) error {
	data, err := json.Marshal(NewMessage(notification))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	subject := Subject(p.prefix, notification.TenantID, notification.RecipientID)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subject returns the per-recipient notification subject.
func Subject(prefix, tenantID, userID string) string {
	return fmt.Sprintf("%s.notifications.%s.%s", prefix, tenantID, userID)
}

// NewMessage builds the wire message with a plain-text preview of the content.
func NewMessage(notification domain.Notification) Message {
	return Message{
		ID:        notification.ID,
		Type:      notification.Type,
		Content:   notification.Content,
		Preview:   preview(notification.Content),
		CreatedAt: notification.CreatedAt,
	}
}

func preview(content string) string {
	text := strings.Join(strings.Fields(html2text.HTML2Text(content)), " ")
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit-1]) + "…"
}
