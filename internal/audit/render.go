package audit

import (
	"html/template"
	"strings"
)

var logTemplate = template.Must(template.New("activity").Parse(
	`<table class="activity-log"><thead><tr><th>Field</th><th>Old value</th><th>New value</th></tr></thead><tbody>` +
		`{{range .}}<tr><td>{{.DisplayName}}</td><td>{{.OldDisplay}}</td><td>{{.NewDisplay}}</td></tr>{{end}}` +
		`</tbody></table>`))

// GenerateLog renders changes as an HTML table. Values are escaped. No changes
// render as the empty string.
func GenerateLog(changes []FieldChange) (string, error) {
	if len(changes) == 0 {
		return "", nil
	}
	var b strings.Builder
	if err := logTemplate.Execute(&b, changes); err != nil {
		return "", err
	}
	return b.String(), nil
}
