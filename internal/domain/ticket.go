package domain

import (
	"strings"
	"time"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. Its current state belongs to the
// ticket's workflow.
type Ticket struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	ExternalKey    string         `json:"external_key"`
	WorkflowID     string         `json:"workflow_id"`
	CurrentStateID string         `json:"current_state_id"`
	TeamID         *string        `json:"team_id,omitempty"`
	AssigneeID     *string        `json:"assignee_id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Priority       TicketPriority `json:"priority"`
	Tags           []string       `json:"tags"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EntityType implements Auditable.
func (t *Ticket) EntityType() EntityType { return EntityTypeTicket }

// EntityID implements Auditable.
func (t *Ticket) EntityID() string { return t.ID }

// IsZero implements Auditable.
func (t *Ticket) IsZero() bool { return t == nil }

// AuditFields lists every declared ticket field in a stable order.
func (t *Ticket) AuditFields() []FieldValue {
	return []FieldValue{
		{Name: "external_key", Value: t.ExternalKey},
		{Name: "workflow_id", Value: t.WorkflowID},
		{Name: "current_state_id", Value: t.CurrentStateID},
		{Name: "team_id", Value: optionalString(t.TeamID)},
		{Name: "assignee_id", Value: optionalString(t.AssigneeID)},
		{Name: "title", Value: t.Title},
		{Name: "description", Value: t.Description},
		{Name: "priority", Value: string(t.Priority)},
		{Name: "tags", Value: strings.Join(t.Tags, ", ")},
		{Name: "updated_at", Value: t.UpdatedAt},
	}
}
