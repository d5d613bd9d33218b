package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/adapters/auditlog"
	"github.com/mikey/contact-intake/internal/adapters/ratelimit"
	"github.com/mikey/contact-intake/internal/adapters/web"
	"github.com/mikey/contact-intake/internal/assistant"
	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/factory"
	"github.com/mikey/contact-intake/internal/logging"
	"github.com/mikey/contact-intake/internal/ports"
	"github.com/mikey/contact-intake/internal/utils"
	"github.com/mikey/contact-intake/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := registerAssistant(container); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewSinkFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return nil, err
	}

	// Register audit log and log sink
	if err := container.Provide(func(f *factory.SinkFactory) (*auditlog.SQLSink, error) {
		return f.CreateAuditLog()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.SinkFactory, audit *auditlog.SQLSink) core.LogSink {
		return f.CreateLogSink(audit)
	}); err != nil {
		return nil, err
	}

	// Register rate limiter
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.RateLimiter, error) {
		rl, err := cfg.GetRateLimit()
		if err != nil {
			return nil, err
		}
		return ratelimit.NewMemoryLimiter(rl.Capacity, rl.Window, rl.Threshold, logger)
	}); err != nil {
		return nil, err
	}

	// Register pipeline configuration
	if err := container.Provide(func(cfg *config.Config) (config.PipelineConfig, error) {
		return cfg.GetPipeline()
	}); err != nil {
		return nil, err
	}

	// Register trusted sender domains
	if err := container.Provide(func(p config.PipelineConfig, logger *zap.Logger) core.SenderAllowlist {
		if len(p.TrustedDomains) > 0 {
			logger.Info("Loaded trusted domains", zap.Strings("domains", p.TrustedDomains))
		}
		return whitelist.NewChecker(p.TrustedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register notification dispatcher
	if err := container.Provide(func(f *factory.MailFactory, sink core.LogSink, p config.PipelineConfig) (core.Dispatcher, error) {
		transport, err := f.CreateTransport()
		if err != nil {
			return nil, err
		}
		return core.NewNotificationDispatcher(transport, sink, f.MailSettings(), p.SendTimeout), nil
	}); err != nil {
		return nil, err
	}

	// Register submission pipeline
	if err := container.Provide(newSubmissionPipeline); err != nil {
		return nil, err
	}

	// Register HTTP frontend
	if err := container.Provide(func(cfg *config.Config, processor core.Processor, logger *zap.Logger) (ports.Frontend, error) {
		srv, err := cfg.GetServer()
		if err != nil {
			return nil, err
		}
		return web.NewHTTPServer(srv, processor, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

type pipelineParams struct {
	dig.In

	Config       *config.Config
	Pipeline     config.PipelineConfig
	Limiter      core.RateLimiter
	Classifier   core.SpamClassifier
	Personalizer core.ResponsePersonalizer
	Dispatcher   core.Dispatcher
	Sink         core.LogSink
	Allowlist    core.SenderAllowlist
}

func newSubmissionPipeline(p pipelineParams) core.Processor {
	return core.NewSubmissionPipeline(
		p.Limiter,
		p.Config,
		core.NewValidator(p.Pipeline.MaxAttachmentBytes),
		p.Classifier,
		p.Personalizer,
		p.Dispatcher,
		p.Sink,
		p.Allowlist,
		core.PipelineOptions{
			ClassifierTimeout:   p.Pipeline.ClassifierTimeout,
			PersonalizerTimeout: p.Pipeline.PersonalizerTimeout,
			FailOpen:            p.Pipeline.FailOpen,
		},
	)
}

// registerAssistant provides the LLM client and the classifier and
// personalizer built on it
func registerAssistant(container *dig.Container) error {
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(logger *zap.Logger) *utils.TextProcessor {
		return utils.NewTextProcessor(logger.Named("text"))
	}); err != nil {
		return err
	}

	if err := container.Provide(func(llm core.LLMClient, tp *utils.TextProcessor, f *factory.LLMFactory, logger *zap.Logger) core.SpamClassifier {
		return assistant.NewSpamClassifier(llm, tp, f.MaxPromptBytes(), logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(llm core.LLMClient, tp *utils.TextProcessor, f *factory.LLMFactory) core.ResponsePersonalizer {
		return assistant.NewPersonalizer(llm, tp, f.MaxPromptBytes())
	}); err != nil {
		return err
	}
	return nil
}
