package storefront

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/goliatone/go-errors"
)

var resetMailTemplate = template.Must(template.New("reset").Parse(`
<p>Your password reset token is here!</p>
<p><a href="{{.ResetURL}}">Click here to reset your password</a></p>
`))

// SMTPMailer delivers reset notifications through a plain SMTP relay
type SMTPMailer struct {
	from     string
	password string
	server   string
	addr     string
	logger   Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer. addr is host:port of the relay, server the
// hostname used for PLAIN auth.
func NewSMTPMailer(from, password, server, addr string) *SMTPMailer {
	return &SMTPMailer{
		from:     from,
		password: password,
		server:   server,
		addr:     addr,
		logger:   defLogger{},
	}
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	body := new(bytes.Buffer)
	if err := resetMailTemplate.Execute(body, struct{ ResetURL string }{resetURL}); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to render reset email")
	}

	auth := smtp.PlainAuth("", m.from, m.password, m.server)

	from := fmt.Sprintf("From: \"Storefront\" <%s>\n", m.from)
	toHeader := fmt.Sprintf("To: %s\n", to)
	subject := "Subject: Your password reset token\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(from + toHeader + subject + mime + "\n" + body.String())

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, msg); err != nil {
		m.logger.Error("reset email delivery failed", "to", to, "error", err)
		return errors.Wrap(err, errors.CategoryOperation, "failed to deliver reset email")
	}

	return nil
}

// ResetURL builds the link embedded in the reset email
func ResetURL(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset?resetToken=%s", frontendURL, token)
}
