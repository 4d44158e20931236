// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Mailer delivers the account emails (verification and password-reset
// links) over SMTP. Leaving User and Pass empty skips authentication,
// which suits a local mailcatcher during development.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New creates a Mailer with the given configuration.
func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
	}
}

// FromName returns the configured sender display name, which doubles as
// the application name in the email templates.
func (m *Mailer) FromName() string {
	return m.fromName
}

// Email is one outbound message. When HTMLBody is set the message goes
// out as multipart/alternative with the text version alongside.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Send delivers one email, blocking until the SMTP exchange completes.
func (m *Mailer) Send(email Email) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{email.To}, m.message(email)); err != nil {
		m.log.Error("email send failed",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("sending email: %w", err)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// message assembles the raw RFC 5322 message bytes.
func (m *Mailer) message(email Email) []byte {
	sender := m.from
	if m.fromName != "" {
		sender = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", sender)
	header("To", email.To)
	header("Subject", email.Subject)
	header("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		b.WriteString("\r\n")
		b.WriteString(email.TextBody)
		return b.Bytes()
	}

	boundary := randomBoundary()
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	part := func(contentType, body string) {
		fmt.Fprintf(&b, "\r\n--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, contentType, body)
	}
	part("text/plain", email.TextBody)
	part("text/html", email.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

// randomBoundary returns a boundary marker for multipart messages.
func randomBoundary() string {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return "----=_Part_" + hex.EncodeToString(raw)
}
