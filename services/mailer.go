// services/mailer.go - Verification mail delivery
package services

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers account-verification mail. Delivery failures are never
// rolled back against the registered user; callers treat sending as
// fire-and-forget.
type Mailer interface {
	SendVerificationEmail(toEmail, link string) error
}

// SMTPMailer sends plain-text mail through an SMTP relay with STARTTLS.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
}

func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password}
}

func (m *SMTPMailer) SendVerificationEmail(toEmail, link string) error {
	headers := []string{
		"From: " + m.user,
		"To: " + toEmail,
		"Subject: Verify your email for LifeQuest",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
	}
	body := fmt.Sprintf("Hi! Confirm your email by following this link: %s", link)
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.user, []string{toEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
