package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/adapters/bedrock"
	"github.com/mikey/contact-intake/internal/adapters/gemini"
	"github.com/mikey/contact-intake/internal/adapters/openai"
	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration.
// A provider without credentials yields a client that fails every call, so
// the server still starts and reports the missing settings per request.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		if f.cfg.GetBedrock().Region == "" {
			return f.unconfigured(llmConfig.Provider), nil
		}
		return bedrock.NewFactory(f.cfg, f.logger).CreateClient()
	case "gemini", "":
		if f.cfg.GetGemini().APIKey == "" {
			return f.unconfigured("gemini"), nil
		}
		return gemini.NewFactory(f.cfg, f.logger).CreateClient()
	case "openai":
		if f.cfg.GetOpenAI().APIKey == "" {
			return f.unconfigured(llmConfig.Provider), nil
		}
		return openai.NewFactory(f.cfg, f.logger).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}

// MaxPromptBytes returns the configured body size limit of the active provider
func (f *LLMFactory) MaxPromptBytes() int {
	switch f.cfg.GetLLM().Provider {
	case "bedrock":
		return f.cfg.GetBedrock().MaxBodySize
	case "openai":
		return f.cfg.GetOpenAI().MaxBodySize
	default:
		return f.cfg.GetGemini().MaxBodySize
	}
}

func (f *LLMFactory) unconfigured(provider string) core.LLMClient {
	f.logger.Warn("LLM provider has no credentials; submissions will be rejected until configured",
		zap.String("provider", provider))
	return unconfiguredClient{provider: provider}
}

type unconfiguredClient struct {
	provider string
}

func (c unconfiguredClient) Name() string {
	return c.provider
}

func (c unconfiguredClient) Complete(context.Context, string) (string, error) {
	return "", fmt.Errorf("%s: %w", c.provider, core.ErrLLMNotConfigured)
}
