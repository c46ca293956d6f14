package gateway

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"

	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/usecase"
)

const implicitTLSPort = 465

var _ usecase.Mailer = (*SMTPMailer)(nil)

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPMailer(host string, port int, username, password string, timeout time.Duration) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  timeout,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m domain.Mail) error {
	ctx, span := tracer.Start(ctx, "Mail.Gateway.Send")
	defer span.End()

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return errors.Wrap(err, "invalid sender")
	}
	if err := msg.To(m.To); err != nil {
		return errors.Wrap(err, "invalid recipient")
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
	}
	if s.timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.timeout))
	}
	if s.port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
