// Package notify sends the owner a transactional mail for every login
// attempt. Delivery is best-effort and entirely off the request path.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer delivers one message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPMailer sends mail through a plain-auth SMTP submission port, the way
// consumer providers like GMX expect.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	owner    string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer that sends from and to the owner address.
func NewSMTPMailer(host string, port int, username, password, owner string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		owner:    owner,
	}
}

func (m *SMTPMailer) Send(_ context.Context, subject, body string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.owner)
	fmt.Fprintf(&msg, "To: %s\r\n", m.owner)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.owner, []string{m.owner}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send notification mail: %w", err)
	}
	return nil
}
