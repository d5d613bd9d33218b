package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/adapters/auditlog"
	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/di"
	"github.com/mikey/contact-intake/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

type runParams struct {
	dig.In

	Logger    *zap.Logger
	Config    *config.Config
	Frontend  ports.Frontend
	LLMClient core.LLMClient
	AuditLog  *auditlog.SQLSink
}

// run is the main application function that gets all dependencies injected
func run(p runParams) error {
	logger := p.Logger
	defer logger.Sync()

	if missing := p.Config.MissingRequired(); len(missing) > 0 {
		logger.Warn("Required settings are missing; submissions will be rejected until they are set",
			zap.Strings("missing", missing))
	}

	// Start the frontend
	if err := p.Frontend.Start(); err != nil {
		logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	var errs error
	errs = multierr.Append(errs, p.Frontend.Stop())

	// Close any resources that need closing
	if closer, ok := p.LLMClient.(interface{ Close() error }); ok {
		errs = multierr.Append(errs, closer.Close())
	}

	if p.AuditLog != nil {
		errs = multierr.Append(errs, p.AuditLog.Stop())
	}

	for _, err := range multierr.Errors(errs) {
		logger.Error("Shutdown error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return errs
}
