package mailer

import "github.com/resumeforge/api/pkg/mailer/templates"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // verify_email, plan_upgraded
	Data     map[string]any `json:"data,omitempty"`
}

// Render resolves the job into subject, text and html, rendering the template when one is named.
func (j EmailJob) Render() (subject, text, html string, err error) {
	if j.Template == "" {
		return j.Subject, j.Text, j.HTML, nil
	}
	return templates.Render(j.Template, j.Data)
}
