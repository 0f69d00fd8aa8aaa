// Package mail delivers the portal's plain text notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/infrastructure/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Errors for SMTP configuration
var (
	ErrConfigMissingServer = errors.New("mail: server is required")
	ErrConfigMissingFrom   = errors.New("mail: from address is required")
	ErrInvalidTLSPolicy    = errors.New("mail: invalid tls policy")
)

// SMTPMailer sends messages through an SMTP relay
type SMTPMailer struct {
	cfg    config.MailConfig
	policy gomail.TLSPolicy
	logger *zap.Logger
}

// Option configures the mailer
type Option func(*SMTPMailer)

// WithLogger sets the mailer logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *SMTPMailer) {
		m.logger = logger
	}
}

// NewSMTPMailer validates the settings and creates the mailer. The SMTP
// connection is opened on every Send.
func NewSMTPMailer(cfg config.MailConfig, opts ...Option) (*SMTPMailer, error) {
	if cfg.Server == "" {
		return nil, ErrConfigMissingServer
	}
	if cfg.FromAddress == "" {
		return nil, ErrConfigMissingFrom
	}
	policy, err := ParseTLSPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}

	m := &SMTPMailer{cfg: cfg, policy: policy, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("mail")
	return m, nil
}

// ParseTLSPolicy maps the configured policy name
func ParseTLSPolicy(name string) (gomail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.NoTLS, fmt.Errorf("%w: %q", ErrInvalidTLSPolicy, name)
	}
}

// Send delivers msg as text/plain
func (m *SMTPMailer) Send(ctx context.Context, msg port.Message) error {
	mm, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Server, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mail: failed to create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("mail: failed to send to %s: %w", msg.To, err)
	}

	m.logger.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *SMTPMailer) build(msg port.Message) (*gomail.Msg, error) {
	mm := gomail.NewMsg(gomail.WithCharset(gomail.CharsetUTF8))
	if err := mm.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("mail: invalid sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetDate()
	mm.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return mm, nil
}

func (m *SMTPMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(m.policy),
		gomail.WithTimeout(defaultTimeout),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.User),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

// LogMailer writes messages to the log instead of sending them. It is
// used in development when no SMTP server is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

// Send logs the message
func (m *LogMailer) Send(_ context.Context, msg port.Message) error {
	m.logger.Info("Email (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// New returns an SMTPMailer when a server is configured and a LogMailer
// otherwise
func New(cfg config.MailConfig, logger *zap.Logger) (port.Mailer, error) {
	if cfg.Server == "" {
		logger.Warn("mail.server not set, emails will only be logged")
		return NewLogMailer(logger), nil
	}
	return NewSMTPMailer(cfg, WithLogger(logger))
}

var (
	_ port.Mailer = (*SMTPMailer)(nil)
	_ port.Mailer = (*LogMailer)(nil)
)
