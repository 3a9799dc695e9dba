package domain

import "time"

// WorkflowState is a node of a ticket workflow.
type WorkflowState struct {
	ID         string
	WorkflowID string
	Name       string
	IsTerminal bool
}

// WorkflowTransition is a defined move between two states of a workflow.
// SLADuration and EscalationLevel are optional.
type WorkflowTransition struct {
	ID              string
	WorkflowID      string
	SourceStateID   string
	TargetStateID   string
	EventName       string
	SLADuration     *time.Duration
	EscalationLevel *int
}

// WorkflowTransitionHistory is written once per state change and never updated.
type WorkflowTransitionHistory struct {
	ID                  string
	TenantID            string
	TicketID            string
	WorkflowID          string
	FromStateID         string
	ToStateID           string
	EventName           string
	TransitionTimestamp time.Time
	SLADueDate          *time.Time
	EscalationLevel     *int
}

// HasSLA reports whether the row takes part in SLA scanning.
func (h WorkflowTransitionHistory) HasSLA() bool {
	return h.SLADueDate != nil
}
