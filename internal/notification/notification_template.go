package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"go-hrms/internal/events"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + ".subject").Option("missingkey=error").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Option("missingkey=error").Parse(body)),
	}
}

var templates = map[string]messageTemplate{
	events.EventLeaveSubmitted: mustTemplate(events.EventLeaveSubmitted,
		`Leave request submitted: {{.EmployeeName}} ({{.LeaveType}})`,
		`Hello,

{{.EmployeeName}} submitted a {{.LeaveType}} leave request from {{.StartDate}} to {{.EndDate}} ({{.Days}} working day{{if ne .Days 1}}s{{end}}).
{{- if .Reason}}
Reason: {{.Reason}}
{{- end}}
The request is pending approval.
`),
	events.EventLeaveStatusChanged: mustTemplate(events.EventLeaveStatusChanged,
		`Your leave request is {{.Status}}`,
		`Hello {{.EmployeeName}},

Your {{.LeaveType}} leave request from {{.StartDate}} to {{.EndDate}} changed from {{.OldStatus}} to {{.Status}}.
{{- if .Reason}}
Reason given: {{.Reason}}
{{- end}}
{{- if .Notes}}

Notes: {{.Notes}}
{{- end}}
`),
	events.EventEmployeeCreated: mustTemplate(events.EventEmployeeCreated,
		`Welcome aboard, {{.FullName}}`,
		`Hello {{.FullName}},

Your employee record has been created with staff number {{.StaffNumber}}.
Your first working day is {{.DateOfJoin}}.
`),
}

// Render executes the subject and body templates registered for eventType.
func Render(eventType string, data any) (subject, body string, err error) {
	tpl, ok := templates[eventType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownEvent, eventType)
	}

	var buf bytes.Buffer
	if err := tpl.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", eventType, err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", eventType, err)
	}
	return subject, buf.String(), nil
}
