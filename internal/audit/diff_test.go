package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

type record struct {
	kind domain.EntityType
	a    any
	b    any
	c    any
}

func (r record) EntityType() domain.EntityType { return r.kind }
func (r record) EntityID() string              { return "r-1" }
func (r record) IsZero() bool                  { return false }
func (r record) AuditFields() []domain.FieldValue {
	return []domain.FieldValue{{Name: "a", Value: r.a}, {Name: "b", Value: r.b}, {Name: "c", Value: r.c}}
}

var rc = domain.SystemContext("tenant-1")

func abRegistry() *Registry {
	return NewRegistry(domain.EntityTypeTicket).
		Register("a", "Field A", nil).
		Register("b", "Field B", nil)
}

func TestFindChangesOnlyRegisteredFields(t *testing.T) {
	previous := record{kind: domain.EntityTypeTicket, a: "x", b: "same", c: 1}
	updated := record{kind: domain.EntityTypeTicket, a: "y", b: "same", c: 2}

	changes, err := FindChanges(context.Background(), rc, previous, updated, abRegistry())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, FieldChange{Field: "a", DisplayName: "Field A", OldDisplay: "x", NewDisplay: "y"}, changes[0])
}

func TestFindChangesNilValues(t *testing.T) {
	called := 0
	reg := NewRegistry(domain.EntityTypeTicket).Register("a", "Assignee", func(_ context.Context, _ domain.RequestContext, v any) (string, error) {
		called++
		return "user " + v.(string), nil
	})

	changes, err := FindChanges(context.Background(), rc,
		record{kind: domain.EntityTypeTicket, a: nil},
		record{kind: domain.EntityTypeTicket, a: "u1"}, reg)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "", changes[0].OldDisplay)
	assert.Equal(t, "user u1", changes[0].NewDisplay)
	assert.Equal(t, 1, called)

	changes, err = FindChanges(context.Background(), rc,
		record{kind: domain.EntityTypeTicket},
		record{kind: domain.EntityTypeTicket}, reg)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestFindChangesTimeEquality(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	reg := NewRegistry(domain.EntityTypeTicket).Register("a", "Updated", Timestamp)

	changes, err := FindChanges(context.Background(), rc,
		record{kind: domain.EntityTypeTicket, a: at},
		record{kind: domain.EntityTypeTicket, a: at.In(time.FixedZone("x", 3600))}, reg)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestFindChangesValidation(t *testing.T) {
	ctx := context.Background()
	ticket := record{kind: domain.EntityTypeTicket}
	team := record{kind: domain.EntityTypeTeam}

	_, err := FindChanges(ctx, rc, ticket, team, abRegistry())
	assert.True(t, util.IsValidation(err))

	_, err = FindChanges(ctx, rc, team, team, abRegistry())
	assert.True(t, util.IsValidation(err))

	_, err = FindChanges(ctx, rc, ticket, ticket, nil)
	assert.True(t, util.IsValidation(err))
}

func TestFindChangesTypedNilSnapshot(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(domain.EntityTypeTicket).Register("title", "Title", nil)

	var previous *domain.Ticket
	assert.NotPanics(t, func() {
		_, err := FindChanges(ctx, rc, previous, &domain.Ticket{Title: "x"}, reg)
		assert.True(t, util.IsValidation(err))
	})
	assert.NotPanics(t, func() {
		_, err := FindChanges(ctx, rc, &domain.Ticket{Title: "x"}, (*domain.Ticket)(nil), reg)
		assert.True(t, util.IsValidation(err))
	})

	_, err := FindChanges(ctx, rc, nil, &domain.Ticket{}, reg)
	assert.True(t, util.IsValidation(err))
}

func TestFindChangesFormatterError(t *testing.T) {
	boom := errors.New("lookup failed")
	reg := NewRegistry(domain.EntityTypeTicket).Register("a", "A", func(context.Context, domain.RequestContext, any) (string, error) {
		return "", boom
	})
	_, err := FindChanges(context.Background(), rc,
		record{kind: domain.EntityTypeTicket, a: "1"},
		record{kind: domain.EntityTypeTicket, a: "2"}, reg)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateLog(t *testing.T) {
	out, err := GenerateLog(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = GenerateLog([]FieldChange{{Field: "title", DisplayName: "Title", OldDisplay: "<b>old</b>", NewDisplay: "new"}})
	require.NoError(t, err)
	assert.Contains(t, out, "<td>Title</td>")
	assert.Contains(t, out, "&lt;b&gt;old&lt;/b&gt;")
	assert.Contains(t, out, "<td>new</td>")
	assert.Contains(t, out, "<th>Old value</th>")
}

func TestFormatters(t *testing.T) {
	ctx := context.Background()
	s, err := YesNo(ctx, rc, true)
	require.NoError(t, err)
	assert.Equal(t, "Yes", s)

	_, err = Timestamp(ctx, rc, "nope")
	assert.Error(t, err)
}
