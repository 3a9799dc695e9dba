package domain

import "time"

// User is an agent or requester known to the tenant.
type User struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
