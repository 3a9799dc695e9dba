// Package audit computes field-level differences between two snapshots of an
// entity and renders them as an activity log.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// Formatter renders a non-nil field value for display. rc scopes any lookup.
type Formatter func(ctx context.Context, rc domain.RequestContext, value any) (string, error)

// FieldHandler describes how one audited field is shown.
type FieldHandler struct {
	DisplayName string
	Format      Formatter
}

// Registry holds the field handlers of one entity type. Fields without a handler
// are not audited. Registries are built at startup and read-only afterwards.
type Registry struct {
	entityType domain.EntityType
	handlers   map[string]FieldHandler
}

// NewRegistry returns an empty registry for entityType.
func NewRegistry(entityType domain.EntityType) *Registry {
	return &Registry{entityType: entityType, handlers: map[string]FieldHandler{}}
}

// Register adds a handler for field. A nil formatter uses Text.
func (r *Registry) Register(field, displayName string, format Formatter) *Registry {
	if format == nil {
		format = Text
	}
	r.handlers[field] = FieldHandler{DisplayName: displayName, Format: format}
	return r
}

// Handler returns the handler for field.
func (r *Registry) Handler(field string) (FieldHandler, bool) {
	h, ok := r.handlers[field]
	return h, ok
}

func (r *Registry) EntityType() domain.EntityType {
	return r.entityType
}

// Set indexes registries by entity type.
type Set map[domain.EntityType]*Registry

// NewSet builds a set from registries.
func NewSet(registries ...*Registry) Set {
	s := make(Set, len(registries))
	for _, r := range registries {
		s[r.entityType] = r
	}
	return s
}

// Text formats any value with %v.
func Text(_ context.Context, _ domain.RequestContext, value any) (string, error) {
	return fmt.Sprint(value), nil
}

// Timestamp formats time.Time values as RFC 3339 in UTC.
func Timestamp(_ context.Context, _ domain.RequestContext, value any) (string, error) {
	t, ok := value.(time.Time)
	if !ok {
		return "", fmt.Errorf("timestamp formatter: unexpected %T", value)
	}
	return t.UTC().Format(time.RFC3339), nil
}

// YesNo formats booleans.
func YesNo(_ context.Context, _ domain.RequestContext, value any) (string, error) {
	b, ok := value.(bool)
	if !ok {
		return "", fmt.Errorf("boolean formatter: unexpected %T", value)
	}
	if b {
		return "Yes", nil
	}
	return "No", nil
}
