// Package notify delivers alert emails through an authenticated SMTP relay.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bybitalert/config"
	"bybitalert/internal/bybit/alert"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNotify marks a failed email delivery.
var ErrNotify = errors.New("notify: delivery failed")

// Mailer sends plain-text alerts to a single recipient.
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	recipient string
	timeout   time.Duration
	tlsPolicy mail.TLSPolicy
	logger    *zap.Logger

	now func() time.Time
}

// NewMailer builds a Mailer from relay settings. The password is resolved
// through Parameter Store when env is "prod".
func NewMailer(cfg config.SMTPConfig, recipient, env string, logger *zap.Logger) *Mailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		host:      cfg.Server,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.ResolvedPassword(env),
		recipient: recipient,
		timeout:   timeout,
		tlsPolicy: mail.TLSMandatory,
		logger:    logger,
		now:       time.Now,
	}
}

// Notify emails ev and reports whether delivery succeeded. Failures are
// logged and never returned.
func (m *Mailer) Notify(ctx context.Context, ev alert.Event) bool {
	if err := m.Send(ctx, ev.Subject, ev.Body); err != nil {
		m.logger.Error("failed to send email",
			zap.String("symbol", ev.Symbol),
			zap.String("subject", ev.Subject),
			zap.Error(err),
		)
		return false
	}
	m.logger.Info("email sent", zap.String("subject", ev.Subject))
	return true
}

// Send delivers one message over STARTTLS with PLAIN auth. Every returned
// error wraps ErrNotify.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if m.host == "" || m.recipient == "" {
		return fmt.Errorf("%w: relay host or recipient not configured", ErrNotify)
	}

	msg, err := m.newMessage(subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(m.tlsPolicy),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("%w: client: %w", ErrNotify, err)
	}

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("%w: dial %s:%d: %w", ErrNotify, m.host, m.port, err)
	}

	if err := client.Send(msg); err != nil {
		_ = client.Close()
		return fmt.Errorf("%w: send: %w", ErrNotify, err)
	}

	// The relay already accepted the message
	if err := client.Close(); err != nil {
		m.logger.Warn("smtp quit failed after delivery", zap.Error(err))
	}
	return nil
}

// newMessage renders a plain-text message from the relay user to the recipient.
func (m *Mailer) newMessage(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.username); err != nil {
		return nil, fmt.Errorf("%w: from address: %w", ErrNotify, err)
	}
	if err := msg.To(m.recipient); err != nil {
		return nil, fmt.Errorf("%w: recipient address: %w", ErrNotify, err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
