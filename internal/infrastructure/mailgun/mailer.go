package mailgun

import (
	"context"
	"errors"

	"github.com/go-credential-api/internal/config"
	"github.com/go-credential-api/internal/pkg/mail"
	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailer sends verification emails through the Mailgun HTTP API.
type Mailer struct {
	client mg.Mailgun
	sender string
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
		return nil, errors.New("mailgun domain and api key are required")
	}
	sender := cfg.MailgunSender
	if sender == "" {
		sender = cfg.SMTPFrom
	}
	return &Mailer{client: mg.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey), sender: sender}, nil
}

func (m *Mailer) SendVerification(ctx context.Context, to, link string) error {
	msg := m.client.NewMessage(m.sender, mail.VerificationSubject, mail.VerificationText(link), to)
	msg.SetHtml(mail.VerificationHTML(link))
	_, _, err := m.client.Send(ctx, msg)
	return err
}
