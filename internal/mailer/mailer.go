package mailer

import (
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer delivers sign-in codes. A send failure must abort the sign-in
// attempt, so implementations return the delivery error unwrapped into
// something actionable.
type Mailer interface {
	SendSignInCode(email, code string) error
}

type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// SMTPMailer sends over a plain SMTP relay with opportunistic TLS.
type SMTPMailer struct {
	config Config
}

func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) SendSignInCode(email, code string) error {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	msg.Subject("Your sign-in code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your sign-in code is: %s\n\nIt expires in 15 minutes. If you did not request it, ignore this email.\n", code))

	client, err := m.createClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("send sign-in code: %w", err)
	}
	return nil
}

func (m *SMTPMailer) createClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if m.config.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
		)
	}

	client, err := mail.NewClient(m.config.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// ConsoleMailer logs the code instead of sending it. Used in development
// where no SMTP relay is configured.
type ConsoleMailer struct {
	logger *zap.Logger
}

func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) SendSignInCode(email, code string) error {
	m.logger.Info("sign-in code (console mailer)",
		zap.String("email", email),
		zap.String("code", code),
	)
	return nil
}
