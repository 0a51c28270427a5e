package mailer

import (
	"timesheet-service/pkg/config"

	"gopkg.in/gomail.v2"
)

// SMTP sends messages with attachments through the configured relay
type SMTP struct {
	cfg config.SMTPConfig
}

// New creates an SMTP mailer from configuration
func New(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

// Send delivers one message with the given file attachments
func (m *SMTP) Send(to, subject, body string, attachments []string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	for _, path := range attachments {
		msg.Attach(path)
	}

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
