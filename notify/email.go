package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Mailer sends plain-text notification emails. Credentials come from
// the environment so they never land in config files.
type Mailer struct {
	Host      string
	Port      string
	Sender    string
	Password  string
	Recipient string
}

// NewFromEnv builds a Mailer from EMAIL_* environment variables. The
// returned Mailer is usable even when unconfigured; Send becomes a
// logged no-op.
func NewFromEnv() *Mailer {
	port := os.Getenv("EMAIL_SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &Mailer{
		Host:      os.Getenv("EMAIL_SMTP_HOST"),
		Port:      port,
		Sender:    os.Getenv("EMAIL_SENDER"),
		Password:  os.Getenv("EMAIL_PASSWORD"),
		Recipient: os.Getenv("EMAIL_RECIPIENT"),
	}
}

// Enabled reports whether enough configuration exists to send.
func (m *Mailer) Enabled() bool {
	return m.Host != "" && m.Sender != "" && m.Recipient != ""
}

// Send delivers one plain-text message.
func (m *Mailer) Send(subject, body string) error {
	if !m.Enabled() {
		log.Printf("[notify] email not configured, skipping: %s", subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + m.Recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.Sender, m.Password, m.Host)
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, m.Sender, []string{m.Recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("sending email %q: %w", subject, err)
	}
	log.Printf("[notify] email sent: %s", subject)
	return nil
}

// SendAsync fires the email on a background goroutine so notification
// latency never blocks the pipeline.
func (m *Mailer) SendAsync(subject, body string) {
	go func() {
		if err := m.Send(subject, body); err != nil {
			log.Printf("[notify] %v", err)
		}
	}()
}
