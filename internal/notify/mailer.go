// Package notify sends the new-post email notifications.
package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a single message. Implementations must be safe for use
// from one request at a time; the notification fan-out sends sequentially.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages over SMTP via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

// NewSMTPMailer configures an SMTP transport. User and password may be empty
// for unauthenticated relays (e.g. a local mailcatcher).
func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(host, port, user, password)}
}

// Send dials, delivers one message, and closes the connection.
func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	out := gomail.NewMessage()
	out.SetHeader("From", msg.From)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/html", msg.HTML)
	return m.dialer.DialAndSend(out)
}
