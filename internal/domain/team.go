package domain

import "time"

// TeamRole is the role a user holds inside a team.
type TeamRole string

const (
	TeamRoleMember  TeamRole = "MEMBER"
	TeamRoleManager TeamRole = "MANAGER"
)

// Team represents a group of agents owning tickets.
type Team struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EntityType implements Auditable.
func (t *Team) EntityType() EntityType { return EntityTypeTeam }

// EntityID implements Auditable.
func (t *Team) EntityID() string { return t.ID }

// IsZero implements Auditable.
func (t *Team) IsZero() bool { return t == nil }

// AuditFields lists every declared team field in a stable order.
func (t *Team) AuditFields() []FieldValue {
	return []FieldValue{
		{Name: "name", Value: t.Name},
		{Name: "description", Value: t.Description},
		{Name: "is_active", Value: t.IsActive},
		{Name: "updated_at", Value: t.UpdatedAt},
	}
}
