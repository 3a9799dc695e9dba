package domain

import "time"

// EntityType enumerates audited entity kinds.
type EntityType string

const (
	EntityTypeTicket EntityType = "TICKET"
	EntityTypeTeam   EntityType = "TEAM"
)

// ActivityLog stores the rendered diff of one entity update.
type ActivityLog struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Content    string     `json:"content"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FieldValue is one declared field of an auditable entity.
type FieldValue struct {
	Name  string
	Value any
}

// Auditable is implemented by entities whose updates produce activity logs.
// AuditFields must return every declared field, nil for absent optional values.
// IsZero reports a nil snapshot held in a non-nil interface; the other methods
// may panic when it returns true.
type Auditable interface {
	EntityType() EntityType
	EntityID() string
	AuditFields() []FieldValue
	IsZero() bool
}

func optionalString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
