package osiapp

import (
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/gomail.v2"
)

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer delivers notification emails. Delivery is best effort; callers must
// not treat a send failure as fatal to the surrounding workflow.
type Mailer interface {
	Send(email Email) error
}

// SMTPMailer sends mail over a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTP backed Mailer.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send sends a single email.
func (m *SMTPMailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	return m.dialer.DialAndSend(msg)
}

// ConfirmationURL builds the public link embedding the confirmation token.
func ConfirmationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/confirm/" + url.PathEscape(token)
}

// ConfirmationEmail builds the message sent after registration.
func ConfirmationEmail(to, confirmURL string) Email {
	return Email{
		To:      []string{to},
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"Welcome!\n\nPlease confirm your email address by visiting the link below:\n\n%s\n\nIf you did not create this account you can ignore this message.\n",
			confirmURL,
		),
	}
}
