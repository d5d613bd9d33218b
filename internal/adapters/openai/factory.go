package openai

import (
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/config"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new OpenAIClient
func (f *Factory) CreateClient() (*OpenAIClient, error) {
	openaiCfg := f.cfg.GetOpenAI()

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if baseURL := f.cfg.GetString("openai.base_url"); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	), nil
}
