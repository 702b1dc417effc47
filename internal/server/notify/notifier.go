// Package notify delivers transactional email: SMTP in production, the
// application log in development.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Notifier sends one HTML message and returns a delivery id.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPNotifier struct {
	dialer sender
	from   string
}

func NewSMTPNotifier(host string, port int, user, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// messageID builds an RFC 5322 Message-Id in the sender's domain.
func (n *SMTPNotifier) messageID() string {
	domain := "localhost"
	if i := strings.LastIndex(n.from, "@"); i >= 0 && i < len(n.from)-1 {
		domain = strings.TrimSuffix(n.from[i+1:], ">")
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

// Send delivers the message; the returned id is its Message-Id header.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := n.messageID()
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-Id", id)
	m.SetBody("text/html", htmlBody)

	if err := n.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("send email to %s: %w", to, err)
	}
	return id, nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	id := uuid.NewString()
	n.log.Info(ctx, "email (not sent)", "id", id, "to", to, "subject", subject, "body", htmlBody)
	return id, nil
}
