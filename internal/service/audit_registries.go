package service

import (
	"github.com/spec-kit/helpdesk-workflow/internal/audit"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// TicketRegistry lists the audited ticket fields. Identifiers are shown by name.
func TicketRegistry(names *DisplayNames) *audit.Registry {
	return audit.NewRegistry(domain.EntityTypeTicket).
		Register("title", "Title", audit.Text).
		Register("description", "Description", audit.Text).
		Register("priority", "Priority", audit.Text).
		Register("current_state_id", "State", names.StateName).
		Register("assignee_id", "Assignee", names.UserName).
		Register("team_id", "Team", names.TeamName).
		Register("tags", "Tags", audit.Text)
}

// TeamRegistry lists the audited team fields.
func TeamRegistry() *audit.Registry {
	return audit.NewRegistry(domain.EntityTypeTeam).
		Register("name", "Name", audit.Text).
		Register("description", "Description", audit.Text).
		Register("is_active", "Active", audit.YesNo)
}
