package domain

// SystemActor identifies work started by the service itself.
const SystemActor = "system"

// RequestContext carries tenant and caller identity through every call.
type RequestContext struct {
	TenantID    string `json:"tenant_id"`
	CurrentUser string `json:"current_user"`
}

// SystemContext returns the context used by scheduled jobs acting for a tenant.
func SystemContext(tenantID string) RequestContext {
	return RequestContext{TenantID: tenantID, CurrentUser: SystemActor}
}
