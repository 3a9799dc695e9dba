package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/pkg/util"
)

func TestDispatchStoresThenPushes(t *testing.T) {
	repo := &fakeNotifications{failFor: map[string]bool{}}
	pusher := &fakePusher{}
	svc := NewNotificationService(NotificationDependencies{NotificationRepo: repo, Pusher: pusher})

	out, err := svc.Dispatch(context.Background(), domain.SystemContext("tenant-1"),
		[]string{"u1", "u2"}, "<p>hello</p>", domain.NotificationTypeWarning)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "u1", out[0].RecipientID)
	assert.NotEmpty(t, out[0].ID)
	assert.False(t, out[0].Read)
	assert.Len(t, pusher.pushed, 2)
}

func TestDispatchToleratesPushFailure(t *testing.T) {
	repo := &fakeNotifications{failFor: map[string]bool{}}
	pusher := &fakePusher{err: errors.New("no subscribers")}
	svc := NewNotificationService(NotificationDependencies{NotificationRepo: repo, Pusher: pusher})

	out, err := svc.Dispatch(context.Background(), domain.SystemContext("tenant-1"),
		[]string{"u1"}, "x", domain.NotificationTypeInfo)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Len(t, repo.created, 1)
}

func TestDispatchJoinsStorageErrors(t *testing.T) {
	repo := &fakeNotifications{failFor: map[string]bool{"u1": true}}
	svc := NewNotificationService(NotificationDependencies{NotificationRepo: repo})

	out, err := svc.Dispatch(context.Background(), domain.SystemContext("tenant-1"),
		[]string{"u1", "u2"}, "x", domain.NotificationTypeError)
	require.Error(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "u2", out[0].RecipientID)

	_, err = svc.Dispatch(context.Background(), domain.RequestContext{}, []string{"u1"}, "x", domain.NotificationTypeInfo)
	assert.True(t, util.IsValidation(err))
}

func TestTicketCreatedNotifiesRecipients(t *testing.T) {
	repo := &fakeNotifications{failFor: map[string]bool{}}
	tickets := &fakeTickets{byID: map[string]*domain.Ticket{
		"tk-1": {ID: "tk-1", TenantID: "tenant-1", ExternalKey: "HD-1", Title: "VPN <down>", TeamID: strPtr("team-1")},
	}}
	teams := &fakeTeams{managers: map[string][]string{"team-1": {"m1"}}}
	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: repo,
		TicketRepo:       tickets,
		Recipients:       NewRecipientResolver(teams),
	})

	err := svc.handleTicketCreated(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Context: domain.SystemContext("tenant-1"),
		Payload: events.TicketCreatedPayload{TicketID: "tk-1"},
	})
	require.NoError(t, err)
	sent := repo.forRecipient("m1")
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationTypeInfo, sent[0].Type)
	assert.Contains(t, sent[0].Content, "VPN &lt;down&gt;")
}

func TestRecipientResolver(t *testing.T) {
	teams := &fakeTeams{managers: map[string][]string{"team-1": {"m1", "m2"}}}
	resolver := NewRecipientResolver(teams)
	ctx := context.Background()
	rc := domain.SystemContext("tenant-1")

	got, err := resolver.Resolve(ctx, rc, &domain.Ticket{AssigneeID: strPtr("a1"), TeamID: strPtr("team-1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, got)

	got, err = resolver.Resolve(ctx, rc, &domain.Ticket{TeamID: strPtr("team-1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, got)

	got, err = resolver.Resolve(ctx, rc, &domain.Ticket{})
	require.NoError(t, err)
	assert.Empty(t, got)

	teams.err = errors.New("db down")
	_, err = resolver.Resolve(ctx, rc, &domain.Ticket{TeamID: strPtr("team-1")})
	assert.Error(t, err)
}
