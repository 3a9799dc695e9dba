package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-workflow/internal/audit"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

type auditFixture struct {
	svc   *AuditService
	logs  *fakeActivityLogs
	sink  *fakeSink
	users *fakeUsers
}

func newAuditFixture() *auditFixture {
	users := &fakeUsers{users: map[string]*domain.User{"u1": {ID: "u1", Name: "Ada Lovelace"}}}
	workflows := &fakeWorkflows{states: map[string]*domain.WorkflowState{
		"open":        {ID: "open", Name: "Open"},
		"in_progress": {ID: "in_progress", Name: "In progress"},
	}}
	names := NewDisplayNames(users, &fakeTeams{}, workflows)
	f := &auditFixture{logs: &fakeActivityLogs{}, sink: &fakeSink{}, users: users}
	f.svc = NewAuditService(AuditDependencies{
		ActivityLogRepo: f.logs,
		Registries:      audit.NewSet(TicketRegistry(names), TeamRegistry()),
		Sink:            f.sink,
	})
	return f
}

func TestRecordUpdateFormatsByName(t *testing.T) {
	f := newAuditFixture()
	rc := domain.RequestContext{TenantID: "tenant-1", CurrentUser: "editor-7"}
	before := &domain.Ticket{ID: "tk-1", CurrentStateID: "open", Title: "Same"}
	after := &domain.Ticket{ID: "tk-1", CurrentStateID: "in_progress", AssigneeID: strPtr("u1"), Title: "Same"}

	log, err := f.svc.RecordUpdate(context.Background(), rc, before, after)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, "editor-7", log.CreatedBy)
	assert.Equal(t, domain.EntityTypeTicket, log.EntityType)
	assert.Equal(t, "tk-1", log.EntityID)
	assert.Contains(t, log.Content, "<td>State</td><td>Open</td><td>In progress</td>")
	assert.Contains(t, log.Content, "<td>Assignee</td><td></td><td>Ada Lovelace</td>")
	assert.NotContains(t, log.Content, "Title")
	assert.Len(t, f.logs.created, 1)
	assert.Len(t, f.sink.published, 1, "sink failures do not undo the stored log")
}

func TestRecordUpdateSkipsUnauditedChanges(t *testing.T) {
	f := newAuditFixture()
	before := &domain.Ticket{ID: "tk-1", ExternalKey: "HD-1"}
	after := &domain.Ticket{ID: "tk-1", ExternalKey: "HD-2"}

	log, err := f.svc.RecordUpdate(context.Background(), domain.SystemContext("tenant-1"), before, after)
	require.NoError(t, err)
	assert.Nil(t, log)
	assert.Empty(t, f.logs.created)
}

func TestRecordUpdateValidation(t *testing.T) {
	f := newAuditFixture()
	_, err := f.svc.RecordUpdate(context.Background(), domain.SystemContext("tenant-1"),
		&domain.Ticket{ID: "x"}, &domain.Team{ID: "x"})
	assert.True(t, util.IsValidation(err))
}

func TestRecordUpdateRejectsMismatchedSnapshots(t *testing.T) {
	f := newAuditFixture()
	ctx := context.Background()
	rc := domain.SystemContext("tenant-1")

	_, err := f.svc.RecordUpdate(ctx, rc, &domain.Team{ID: "tm-1", Name: "Ops"}, &domain.Team{ID: "tm-2", Name: "Support"})
	assert.True(t, util.IsValidation(err))

	_, err = f.svc.RecordUpdate(ctx, rc, (*domain.Team)(nil), &domain.Team{ID: "tm-1", Name: "Support"})
	assert.True(t, util.IsValidation(err))

	_, err = f.svc.RecordUpdate(ctx, rc, nil, &domain.Team{ID: "tm-1", Name: "Support"})
	assert.True(t, util.IsValidation(err))

	assert.Empty(t, f.logs.created)
	assert.Empty(t, f.sink.published)
}

func TestEntityUpdatedHandlerNeverFails(t *testing.T) {
	f := newAuditFixture()
	f.logs.err = errors.New("insert failed")
	err := f.svc.handleEntityUpdated(context.Background(), events.Event{
		Type:    events.EventEntityUpdated,
		Context: domain.SystemContext("tenant-1"),
		Payload: events.EntityUpdatedPayload{
			EntityType: domain.EntityTypeTeam,
			Previous:   &domain.Team{ID: "tm-1", Name: "Ops"},
			Updated:    &domain.Team{ID: "tm-1", Name: "Support"},
		},
	})
	assert.NoError(t, err)

	assert.NoError(t, f.svc.handleEntityUpdated(context.Background(), events.Event{Payload: 42}))
}

func TestDisplayNamesCachesLookups(t *testing.T) {
	f := newAuditFixture()
	names := NewDisplayNames(f.users, &fakeTeams{}, &fakeWorkflows{})
	rc := domain.SystemContext("tenant-1")

	for i := 0; i < 3; i++ {
		name, err := names.UserName(context.Background(), rc, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", name)
	}
	assert.Equal(t, 1, f.users.calls)

	name, err := names.UserName(context.Background(), rc, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", name)
}
