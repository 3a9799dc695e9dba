package service

import (
	"html/template"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

var notificationTemplates = template.Must(template.New("notifications").Parse(`
{{define "sla_warning"}}<p>Ticket <strong>{{.Ticket.ExternalKey}}</strong> ({{.Ticket.Title}}) is due by <time datetime="{{.DueISO}}">{{.Due}}</time>.</p>{{end}}
{{define "sla_breach"}}<p>Ticket <strong>{{.Ticket.ExternalKey}}</strong> ({{.Ticket.Title}}) missed its SLA at <time datetime="{{.DueISO}}">{{.Due}}</time>.</p>{{end}}
{{define "escalation"}}<p>Ticket <strong>{{.Ticket.ExternalKey}}</strong> ({{.Ticket.Title}}) breached its SLA and was escalated to level {{.Level}}.</p>{{end}}
{{define "ticket_created"}}<p>New ticket <strong>{{.Ticket.ExternalKey}}</strong>: {{.Ticket.Title}}</p>{{end}}
`))

type notificationView struct {
	Ticket *domain.Ticket
	Due    string
	DueISO string
	Level  int
}

func newNotificationView(ticket *domain.Ticket, row *domain.WorkflowTransitionHistory) notificationView {
	view := notificationView{Ticket: ticket}
	if row != nil && row.SLADueDate != nil {
		view.Due = row.SLADueDate.UTC().Format("2006-01-02 15:04 MST")
		view.DueISO = row.SLADueDate.UTC().Format(time.RFC3339)
	}
	if row != nil && row.EscalationLevel != nil {
		view.Level = *row.EscalationLevel
	}
	return view
}

func renderNotification(name string, view notificationView) (string, error) {
	var b strings.Builder
	if err := notificationTemplates.ExecuteTemplate(&b, name, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
