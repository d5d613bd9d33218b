package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
)

// TLS modes accepted in smtp.tls
const (
	TLSModeStartTLS = "starttls"
	TLSModeImplicit = "implicit"
	TLSModeNone     = "none"
)

const defaultDialTimeout = 10 * time.Second

// SMTPTransport delivers composed messages to a submission server
type SMTPTransport struct {
	cfg       config.SMTPConfig
	composer  *Composer
	logger    *zap.Logger
	tlsConfig *tls.Config
	dialer    *net.Dialer
}

// NewSMTPTransport creates a new SMTP transport
func NewSMTPTransport(cfg config.SMTPConfig, composer *Composer, logger *zap.Logger) (*SMTPTransport, error) {
	switch cfg.TLS {
	case TLSModeStartTLS, TLSModeImplicit, TLSModeNone:
	case "":
		cfg.TLS = TLSModeStartTLS
	default:
		return nil, fmt.Errorf("unsupported smtp.tls mode %q", cfg.TLS)
	}
	if cfg.HeloName == "" {
		cfg.HeloName = "localhost"
	}
	if composer == nil {
		composer = NewComposer(nil)
	}
	return &SMTPTransport{
		cfg:       cfg,
		composer:  composer,
		logger:    logger,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		dialer:    &net.Dialer{Timeout: defaultDialTimeout},
	}, nil
}

// Send composes msg and delivers it in a single SMTP session
func (t *SMTPTransport) Send(ctx context.Context, msg *core.OutboundMessage) error {
	data, err := t.composer.Compose(msg)
	if err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}

	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.Email)
	}

	c, stop, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer stop()
	defer c.Close()

	if t.cfg.Username != "" {
		auth := sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)
		if err := c.Auth(auth); err != nil {
			return mapAuthError(err)
		}
	}

	if err := c.Mail(msg.From.Email, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has already been accepted
		t.logger.Warn("QUIT command failed", zap.Error(err))
	}

	t.logger.Debug("Message delivered",
		zap.String("server", t.cfg.Address()),
		zap.Strings("recipients", recipients),
		zap.Int("bytes", len(data)))
	return nil
}

func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, func() bool, error) {
	conn, err := t.dialer.DialContext(ctx, "tcp", t.cfg.Address())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", t.cfg.Address(), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}
	// Unblock the session if the context ends before the deadline fires
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	var c *smtp.Client
	switch t.cfg.TLS {
	case TLSModeStartTLS:
		// The pre-TLS greeting uses the client default name; the session is
		// re-greeted with HeloName once the upgrade completes
		c, err = smtp.NewClientStartTLS(conn, t.tlsConfig)
		if err != nil {
			stop()
			conn.Close()
			return nil, nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	case TLSModeImplicit:
		c = smtp.NewClient(tls.Client(conn, t.tlsConfig))
	default:
		c = smtp.NewClient(conn)
	}

	if err := c.Hello(t.cfg.HeloName); err != nil {
		stop()
		c.Close()
		return nil, nil, fmt.Errorf("EHLO failed: %w", err)
	}
	return c, stop, nil
}

// mapAuthError marks credential rejections so callers can surface a hint
func mapAuthError(err error) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) && (smtpErr.Code == 534 || smtpErr.Code == 535) {
		return fmt.Errorf("%w: %v", core.ErrMailAuthentication, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "authentication") {
		return fmt.Errorf("%w: %v", core.ErrMailAuthentication, err)
	}
	return fmt.Errorf("AUTH failed: %w", err)
}
