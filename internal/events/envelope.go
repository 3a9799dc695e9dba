package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// Envelope is the wire form of events received from other services.
type Envelope struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	TenantID   string          `json:"tenant_id"`
	ActorID    string          `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type entityUpdatedWire struct {
	EntityType domain.EntityType `json:"entity_type"`
	Previous   json.RawMessage   `json:"previous"`
	Updated    json.RawMessage   `json:"updated"`
}

// DecodeEnvelope parses data into an Event with a typed payload.
func DecodeEnvelope(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, util.NewValidationError("malformed event envelope", map[string]any{"error": err.Error()})
	}
	if env.TenantID == "" {
		return Event{}, util.NewValidationError("event tenant is required", map[string]any{"event_id": env.ID})
	}

	actor := env.ActorID
	if actor == "" {
		actor = domain.SystemActor
	}
	event := Event{
		ID:        env.ID,
		Type:      env.Type,
		Context:   domain.RequestContext{TenantID: env.TenantID, CurrentUser: actor},
		Timestamp: env.OccurredAt,
	}

	var err error
	switch env.Type {
	case EventTicketCreated:
		var p TicketCreatedPayload
		err = json.Unmarshal(env.Payload, &p)
		if err == nil && p.TicketID == "" {
			err = fmt.Errorf("ticket_id is required")
		}
		event.Payload = p
	case EventTicketStateTransitioned:
		var p TicketStateTransitionedPayload
		err = json.Unmarshal(env.Payload, &p)
		if err == nil && (p.TicketID == "" || p.TargetStateID == "") {
			err = fmt.Errorf("ticket_id and target_state_id are required")
		}
		event.Payload = p
	case EventEntityUpdated:
		event.Payload, err = decodeEntityUpdated(env.Payload)
	default:
		return Event{}, util.NewValidationError("unsupported event type", map[string]any{"type": env.Type})
	}
	if err != nil {
		return Event{}, util.NewValidationError("invalid event payload", map[string]any{
			"type":  env.Type,
			"error": err.Error(),
		})
	}
	return event, nil
}

func decodeEntityUpdated(raw json.RawMessage) (EntityUpdatedPayload, error) {
	var wire entityUpdatedWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return EntityUpdatedPayload{}, err
	}
	previous, err := decodeSnapshot(wire.EntityType, wire.Previous)
	if err != nil {
		return EntityUpdatedPayload{}, fmt.Errorf("previous: %w", err)
	}
	updated, err := decodeSnapshot(wire.EntityType, wire.Updated)
	if err != nil {
		return EntityUpdatedPayload{}, fmt.Errorf("updated: %w", err)
	}
	return EntityUpdatedPayload{EntityType: wire.EntityType, Previous: previous, Updated: updated}, nil
}

var errMissingSnapshot = errors.New("snapshot is required")

func decodeSnapshot(entityType domain.EntityType, raw json.RawMessage) (domain.Auditable, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errMissingSnapshot
	}
	switch entityType {
	case domain.EntityTypeTicket:
		var t domain.Ticket
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case domain.EntityTypeTeam:
		var t domain.Team
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}
