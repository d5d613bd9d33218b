package gemini

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/config"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new GeminiClient
func (f *Factory) CreateClient() (*GeminiClient, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewGeminiClient(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	)
}
