package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/lock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeTickets struct {
	byID map[string]*domain.Ticket
}

func (f *fakeTickets) GetByID(_ context.Context, tenantID, id string) (*domain.Ticket, error) {
	t, ok := f.byID[id]
	if !ok || t.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

type fakeTeams struct {
	teams    map[string]*domain.Team
	managers map[string][]string
	err      error
}

func (f *fakeTeams) GetByID(_ context.Context, _ string, id string) (*domain.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTeams) ListManagerIDs(_ context.Context, _ string, teamID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.managers[teamID], nil
}

type fakeUsers struct {
	users map[string]*domain.User
	calls int
}

func (f *fakeUsers) GetByID(_ context.Context, _ string, id string) (*domain.User, error) {
	f.calls++
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type fakeWorkflows struct {
	transitions []domain.WorkflowTransition
	states      map[string]*domain.WorkflowState
	err         error
}

func (f *fakeWorkflows) FindTransition(_ context.Context, workflowID, src, tgt, eventName string) (*domain.WorkflowTransition, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.transitions {
		if t.WorkflowID == workflowID && t.SourceStateID == src && t.TargetStateID == tgt &&
			(eventName == "" || t.EventName == eventName) {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeWorkflows) GetState(_ context.Context, id string) (*domain.WorkflowState, error) {
	s, ok := f.states[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.WorkflowTransitionHistory
	err  error
}

func (f *fakeHistory) Create(_ context.Context, h *domain.WorkflowTransitionHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = fmt.Sprintf("h-%d", len(f.rows)+1)
	f.rows = append(f.rows, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, tenantID, ticketID string) ([]domain.WorkflowTransitionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WorkflowTransitionHistory
	for _, r := range f.rows {
		if r.TenantID == tenantID && r.TicketID == ticketID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListOpenSLADue filters by due date only; tests seed rows whose tickets are open.
func (f *fakeHistory) ListOpenSLADue(_ context.Context, from, to time.Time) ([]domain.WorkflowTransitionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.WorkflowTransitionHistory
	for _, r := range f.rows {
		if r.SLADueDate == nil || r.SLADueDate.Before(from) || r.SLADueDate.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	created []domain.Notification
	failFor map[string]bool
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[n.RecipientID] {
		return errors.New("insert failed")
	}
	n.ID = fmt.Sprintf("n-%d", len(f.created)+1)
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotifications) forRecipient(id string) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.created {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

type fakePusher struct {
	pushed []domain.Notification
	err    error
}

func (f *fakePusher) Push(_ context.Context, n domain.Notification) error {
	f.pushed = append(f.pushed, n)
	return f.err
}

type fakeActivityLogs struct {
	created []domain.ActivityLog
	err     error
}

func (f *fakeActivityLogs) Create(_ context.Context, l *domain.ActivityLog) error {
	if f.err != nil {
		return f.err
	}
	l.ID = fmt.Sprintf("a-%d", len(f.created)+1)
	f.created = append(f.created, *l)
	return nil
}

type fakeSink struct {
	published []domain.ActivityLog
}

func (f *fakeSink) PublishActivity(_ context.Context, l domain.ActivityLog) error {
	f.published = append(f.published, l)
	return errors.New("broker down")
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (lock.Lock, error) {
	if f.held {
		return nil, lock.ErrNotAcquired
	}
	f.acquired++
	return fakeLock{f}, nil
}

type fakeLock struct{ l *fakeLocker }

func (f fakeLock) Release(context.Context) error {
	f.l.released++
	return nil
}

type mapDedup struct {
	now     func() time.Time
	entries map[string]time.Time
}

func newMapDedup(now func() time.Time) *mapDedup {
	return &mapDedup{now: now, entries: map[string]time.Time{}}
}

func (m *mapDedup) ContainsKey(_ context.Context, key string) (bool, error) {
	exp, ok := m.entries[key]
	return ok && exp.After(m.now()), nil
}

func (m *mapDedup) Put(_ context.Context, key string, ttl time.Duration) error {
	m.entries[key] = m.now().Add(ttl)
	return nil
}

func strPtr(s string) *string { return &s }
