package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeInfo             NotificationType = "INFO"
	NotificationTypeWarning          NotificationType = "WARNING"
	NotificationTypeError            NotificationType = "ERROR"
	NotificationTypeSLABreach        NotificationType = "SLA_BREACH"
	NotificationTypeSLAWarning       NotificationType = "SLA_WARNING"
	NotificationTypeEscalationNotice NotificationType = "ESCALATION_NOTICE"
)

// Notification is the durable record of a message addressed to one user.
type Notification struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
