package events

import (
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket.created"
	EventTicketStateTransitioned EventType = "ticket.state_transitioned"
	EventEntityUpdated           EventType = "entity.updated"
)

// Event represents a domain event handed to in-process listeners.
type Event struct {
	ID        string                `json:"id"`
	Type      EventType             `json:"type"`
	Context   domain.RequestContext `json:"context"`
	Timestamp time.Time             `json:"timestamp"`
	Payload   interface{}           `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID string `json:"ticket_id"`
}

// TicketStateTransitionedPayload payload. EventName is optional.
type TicketStateTransitionedPayload struct {
	TicketID      string `json:"ticket_id"`
	SourceStateID string `json:"source_state_id"`
	TargetStateID string `json:"target_state_id"`
	EventName     string `json:"event_name,omitempty"`
}

// EntityUpdatedPayload carries the snapshots before and after an update.
type EntityUpdatedPayload struct {
	EntityType domain.EntityType
	Previous   domain.Auditable
	Updated    domain.Auditable
}
