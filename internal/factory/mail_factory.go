package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/adapters/mailer"
	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
)

// MailFactory creates the mail transport and notification settings
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTransport creates an SMTP transport, signing with DKIM when enabled
func (f *MailFactory) CreateTransport() (*mailer.SMTPTransport, error) {
	signer, err := mailer.LoadDKIMSigner(f.cfg.GetDKIM())
	if err != nil {
		return nil, fmt.Errorf("failed to load DKIM signer: %w", err)
	}
	if signer != nil {
		f.logger.Info("DKIM signing enabled", zap.String("selector", f.cfg.GetDKIM().Selector))
	}

	smtpCfg := f.cfg.GetSMTP()
	f.logger.Info("Using SMTP transport",
		zap.String("server", smtpCfg.Address()),
		zap.String("tls", smtpCfg.TLS))

	return mailer.NewSMTPTransport(smtpCfg, mailer.NewComposer(signer), f.logger.Named("smtp"))
}

// MailSettings returns the sender and operator addresses
func (f *MailFactory) MailSettings() core.MailSettings {
	m := f.cfg.GetMail()
	return core.MailSettings{
		FromName:      m.FromName,
		FromEmail:     m.FromEmail,
		OperatorEmail: m.ToEmail,
	}
}
