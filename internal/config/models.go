package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// SMTPConfig represents the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      string
	Username string
	Password string
	HeloName string
}

// Address returns host:port
func (s SMTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MailConfig represents the notification addresses
type MailConfig struct {
	FromName  string
	FromEmail string
	ToEmail   string
}

// DKIMConfig represents optional DKIM signing settings
type DKIMConfig struct {
	Enabled        bool
	Domain         string
	Selector       string
	PrivateKeyPath string
}

// RateLimitConfig represents the per-origin submission limit
type RateLimitConfig struct {
	Capacity  int
	Window    time.Duration
	Threshold int
}

// PipelineConfig represents timeouts and limits for one submission
type PipelineConfig struct {
	ClassifierTimeout   time.Duration
	PersonalizerTimeout time.Duration
	SendTimeout         time.Duration
	MaxAttachmentBytes  int64
	FailOpen            bool
	TrustedDomains      []string
}

// ServerConfig represents the HTTP listener settings
type ServerConfig struct {
	ListenAddress     string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	MaxMemory         int64
	TrustForwardedFor bool
}

// AuditLogConfig represents the optional persistent submission log
type AuditLogConfig struct {
	Type             string
	Retention        time.Duration
	CleanupFrequency time.Duration
	BufferSize       int
	SQLitePath       string
	MySQLDSN         string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.GetString("smtp.host"),
		Port:     c.GetInt("smtp.port"),
		TLS:      c.GetString("smtp.tls"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		HeloName: c.GetString("smtp.helo_name"),
	}
}

// GetMail returns the notification addresses
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		FromName:  c.GetString("mail.from_name"),
		FromEmail: c.GetString("mail.from_email"),
		ToEmail:   c.GetString("mail.to_email"),
	}
}

// GetDKIM returns the DKIM configuration
func (c *Config) GetDKIM() DKIMConfig {
	return DKIMConfig{
		Enabled:        c.GetBool("dkim.enabled"),
		Domain:         c.GetString("dkim.domain"),
		Selector:       c.GetString("dkim.selector"),
		PrivateKeyPath: c.GetString("dkim.private_key_path"),
	}
}

// GetRateLimit returns the rate limiter configuration
func (c *Config) GetRateLimit() (RateLimitConfig, error) {
	window, err := c.GetDuration("ratelimit.window")
	if err != nil {
		return RateLimitConfig{}, fmt.Errorf("invalid ratelimit.window: %w", err)
	}
	return RateLimitConfig{
		Capacity:  c.GetInt("ratelimit.capacity"),
		Window:    window,
		Threshold: c.GetInt("ratelimit.threshold"),
	}, nil
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	classifier, err := c.GetDuration("pipeline.classifier_timeout")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.classifier_timeout: %w", err)
	}
	personalizer, err := c.GetDuration("pipeline.personalizer_timeout")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.personalizer_timeout: %w", err)
	}
	send, err := c.GetDuration("pipeline.send_timeout")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.send_timeout: %w", err)
	}
	return PipelineConfig{
		ClassifierTimeout:   classifier,
		PersonalizerTimeout: personalizer,
		SendTimeout:         send,
		MaxAttachmentBytes:  c.GetInt64("pipeline.max_attachment_bytes"),
		FailOpen:            c.GetBool("spam.fail_open"),
		TrustedDomains:      c.GetStringSlice("spam.trusted_domains"),
	}, nil
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server.read_timeout: %w", err)
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server.write_timeout: %w", err)
	}
	shutdown, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}
	return ServerConfig{
		ListenAddress:     c.GetString("server.listen_address"),
		ReadTimeout:       read,
		WriteTimeout:      write,
		ShutdownTimeout:   shutdown,
		MaxBodyBytes:      c.GetInt64("server.max_body_bytes"),
		MaxMemory:         c.GetInt64("server.max_memory"),
		TrustForwardedFor: c.GetBool("server.trust_forwarded_for"),
	}, nil
}

// GetAuditLog returns the audit log configuration
func (c *Config) GetAuditLog() (AuditLogConfig, error) {
	retention, err := c.GetDuration("audit_log.retention")
	if err != nil {
		return AuditLogConfig{}, fmt.Errorf("invalid audit_log.retention: %w", err)
	}
	cleanup, err := c.GetDuration("audit_log.cleanup_frequency")
	if err != nil {
		return AuditLogConfig{}, fmt.Errorf("invalid audit_log.cleanup_frequency: %w", err)
	}
	return AuditLogConfig{
		Type:             c.GetString("audit_log.type"),
		Retention:        retention,
		CleanupFrequency: cleanup,
		BufferSize:       c.GetInt("audit_log.buffer_size"),
		SQLitePath:       c.GetString("audit_log.sqlite_path"),
		MySQLDSN:         c.GetString("audit_log.mysql_dsn"),
	}, nil
}

type requiredSetting struct {
	key string
	env string
}

// MissingRequired returns the environment variable names of required settings
// that are empty.
func (c *Config) MissingRequired() []string {
	required := []requiredSetting{
		{"smtp.username", "SMTP_USER"},
		{"smtp.password", "SMTP_PASS"},
		{"mail.from_email", "FROM_EMAIL"},
		{"mail.to_email", "TO_EMAIL"},
	}

	switch c.GetString("llm.provider") {
	case "openai":
		required = append(required, requiredSetting{"openai.api_key", "OPENAI_API_KEY"})
	case "bedrock":
		required = append(required, requiredSetting{"bedrock.region", "AWS_REGION"})
	default:
		required = append(required, requiredSetting{"gemini.api_key", "GOOGLE_API_KEY"})
	}

	var missing []string
	for _, r := range required {
		if c.GetString(r.key) == "" {
			missing = append(missing, r.env)
		}
	}
	return missing
}
