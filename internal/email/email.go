package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"github.com/yasarair/flightcore/config"
)

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	c, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize smtp client: %w", err)
	}
	return &SMTPSender{client: c, from: cfg.From, fromName: cfg.FromName}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return s.client.DialAndSendWithContext(ctx, msg)
}

func (s *SMTPSender) Close() error {
	return s.client.Close()
}

var _ Sender = (*SMTPSender)(nil)
