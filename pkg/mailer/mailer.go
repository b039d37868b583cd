package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jmarchetti/storefront-backend/pkg/config"
	"github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
)

// Mailer delivers plain-text mail to one or more recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.SMTPAddr == "" {
		return nil, errors.New(errors.CodeInternal, "smtp address is required")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New(errors.CodeInternal, "from address is required")
	}

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		host := cfg.SMTPAddr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, host)
	}

	return &SMTPMailer{
		addr: cfg.SMTPAddr,
		auth: auth,
		from: cfg.FromAddress,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject string, body string) error {
	if len(to) == 0 {
		return errors.New(errors.CodeValidation, "no recipients")
	}

	msg := buildMessage(m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, to, msg); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "sending mail")
	}
	return nil
}

func buildMessage(from string, to []string, subject string, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogMailer writes mail to the log instead of a relay. Used in dev where no
// SMTP server is available.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, to []string, subject string, body string) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"to":      strings.Join(to, ", "),
		"subject": subject,
	})
	m.logg.Info(ctx, "mail delivery skipped (log mailer)")
	return nil
}
