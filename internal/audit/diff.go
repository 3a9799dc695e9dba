package audit

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// FieldChange is one audited field whose value differs between snapshots.
type FieldChange struct {
	Field       string
	DisplayName string
	OldDisplay  string
	NewDisplay  string
}

// FindChanges compares every declared field of previous and updated and returns
// the changed fields that have a handler in reg, in declaration order.
func FindChanges(ctx context.Context, rc domain.RequestContext, previous, updated domain.Auditable, reg *Registry) ([]FieldChange, error) {
	if missing(previous) || missing(updated) {
		return nil, util.NewValidationError("both entity snapshots are required", nil)
	}
	if reg == nil {
		return nil, util.NewValidationError("field registry is required", nil)
	}
	if previous.EntityType() != updated.EntityType() {
		return nil, util.NewValidationError("entity types differ", map[string]any{
			"old": previous.EntityType(),
			"new": updated.EntityType(),
		})
	}
	if previous.EntityType() != reg.EntityType() {
		return nil, util.NewValidationError("registry does not match entity type", map[string]any{
			"entity":   previous.EntityType(),
			"registry": reg.EntityType(),
		})
	}

	newValues := make(map[string]any)
	for _, f := range updated.AuditFields() {
		newValues[f.Name] = f.Value
	}

	var changes []FieldChange
	for _, f := range previous.AuditFields() {
		handler, ok := reg.Handler(f.Name)
		if !ok {
			continue
		}
		newValue := newValues[f.Name]
		if equalValues(f.Value, newValue) {
			continue
		}
		oldDisplay, err := display(ctx, rc, handler, f.Value)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", f.Name, err)
		}
		newDisplay, err := display(ctx, rc, handler, newValue)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", f.Name, err)
		}
		changes = append(changes, FieldChange{
			Field:       f.Name,
			DisplayName: handler.DisplayName,
			OldDisplay:  oldDisplay,
			NewDisplay:  newDisplay,
		})
	}
	return changes, nil
}

func display(ctx context.Context, rc domain.RequestContext, handler FieldHandler, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return handler.Format(ctx, rc, value)
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func missing(a domain.Auditable) bool {
	return a == nil || a.IsZero()
}
