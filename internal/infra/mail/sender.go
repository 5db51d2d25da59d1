package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/optira-energie/comparateur-api/internal/infra/queue"
)

func NewEmailSender(host string, port int, user, password, salesTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		SalesTo:  salesTo,
	}
}

// SendNewLead mails the sales inbox about a freshly submitted lead. It
// satisfies queue.LeadNotifier and runs from the worker, never inline
// with the HTTP request.
func (s *EmailSender) SendNewLead(payload queue.LeadSubmittedPayload) error {
	data := NewLeadEmailData{
		ProspectID:     payload.ProspectID,
		CompanyName:    payload.CompanyName,
		SirenNumber:    payload.SirenNumber,
		ActivityType:   payload.ActivityType,
		ContactName:    payload.ContactName,
		Email:          payload.Email,
		Phone:          payload.Phone,
		CompletionRate: payload.CompletionRate,
		SubmittedAt:    payload.SubmittedAt.Format("02/01/2006 15:04"),
	}

	tmplPath := filepath.Join("templates", "new_lead.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to read mail template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render mail template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", "no-reply@optira-energie.fr")
	m.SetHeader("To", s.SalesTo)
	m.SetHeader("Subject", fmt.Sprintf("Nouveau lead : %s", payload.CompanyName))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send SMTP mail: %w", err)
	}

	return nil
}
