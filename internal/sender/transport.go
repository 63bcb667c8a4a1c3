// Package sender executes due outreach actions, either simulating them or
// delivering email over SMTP.
package sender

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Transport delivers messages. Live sends go through SMTPTransport; tests
// substitute fakes.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport delivers mail via a plain SMTP endpoint with AUTH PLAIN.
type SMTPTransport struct {
	cfg config.SMTPConfig
}

// NewSMTPTransport creates a transport from validated SMTP config.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send delivers one message. The context deadline is advisory only; net/smtp
// blocks until the server responds or the connection drops.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "smtp: context done")
	}

	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)

	if err := smtp.SendMail(addr, auth, t.cfg.From, []string{msg.To}, formatMessage(msg)); err != nil {
		return eris.Wrapf(err, "smtp: send to %s", msg.To)
	}
	return nil
}

// formatMessage renders the RFC 5322 wire form. Header values are kept to a
// single line so a templated subject cannot inject extra headers.
func formatMessage(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sanitizeHeader(msg.From))
	fmt.Fprintf(&b, "To: %s\r\n", sanitizeHeader(msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.ReplaceAll(v, "\n", " ")
}
