package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

// RecipientResolver decides who is told about a ticket.
type RecipientResolver struct {
	teams repository.TeamRepository
}

// NewRecipientResolver creates the resolver.
func NewRecipientResolver(teams repository.TeamRepository) *RecipientResolver {
	return &RecipientResolver{teams: teams}
}

// Resolve returns the assignee when there is one, otherwise the managers of the
// owning team. A ticket with neither yields no recipients.
func (r *RecipientResolver) Resolve(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket) ([]string, error) {
	if assignee := deref(ticket.AssigneeID); assignee != "" {
		return []string{assignee}, nil
	}
	return r.Managers(ctx, rc, ticket)
}

// Managers returns the managers of the ticket's team.
func (r *RecipientResolver) Managers(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket) ([]string, error) {
	teamID := deref(ticket.TeamID)
	if teamID == "" {
		return nil, nil
	}
	managers, err := r.teams.ListManagerIDs(ctx, rc.TenantID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list managers of team %s: %w", teamID, err)
	}
	return managers, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
