// Package notifications delivers allocation and return emails to custodians
// and their sector leads. Delivery is best-effort from the allocation
// workflow's point of view: errors are reported to the caller but never block
// or roll back the allocation itself.
package notifications

import (
	"context"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/curiango/curiango/internal/config"
)

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Message is an outgoing email.
type Message struct {
	To         []string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Mailer sends email. Satisfied by SMTPMailer; stubbed in tests.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer from the notifications config.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send assembles and delivers one message. The context is honored up to the
// dial: gomail does not support cancellation mid-send.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To...)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", msg.Body)

	if msg.Attachment != nil {
		att := msg.Attachment
		mail.Attach(att.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {att.MIMEType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Data)
				return err
			}))
	}

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
