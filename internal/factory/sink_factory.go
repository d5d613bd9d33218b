package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/adapters/auditlog"
	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/logging"
)

// SinkFactory creates the pipeline log sinks based on configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAuditLog creates the persistent audit log. It returns nil when
// audit_log.type is "none".
func (f *SinkFactory) CreateAuditLog() (*auditlog.SQLSink, error) {
	auditCfg, err := f.cfg.GetAuditLog()
	if err != nil {
		return nil, err
	}

	opts := auditlog.Options{
		Retention:   auditCfg.Retention,
		CleanupFreq: auditCfg.CleanupFrequency,
		BufferSize:  auditCfg.BufferSize,
	}

	switch auditCfg.Type {
	case "none", "":
		return nil, nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(auditCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return auditlog.NewSQLiteSink(auditCfg.SQLitePath, f.logger, opts)
	case "mysql":
		return auditlog.NewMySQLSink(auditCfg.MySQLDSN, f.logger, opts)
	default:
		return nil, fmt.Errorf("unsupported audit log type: %s", auditCfg.Type)
	}
}

// CreateLogSink combines the zap sink with the audit log, if any
func (f *SinkFactory) CreateLogSink(audit *auditlog.SQLSink) core.LogSink {
	sinks := logging.MultiSink{logging.NewZapSink(f.logger)}
	if audit != nil {
		sinks = append(sinks, audit)
	}
	return sinks
}
