package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// envFiles are loaded in order; variables already set are never overridden
var envFiles = []string{".env.local", ".env"}

// legacyEnv maps configuration keys to the unprefixed variables deployments already use
var legacyEnv = map[string]string{
	"smtp.username":   "SMTP_USER",
	"smtp.password":   "SMTP_PASS",
	"smtp.host":       "SMTP_HOST",
	"smtp.port":       "SMTP_PORT",
	"mail.from_email": "FROM_EMAIL",
	"mail.to_email":   "TO_EMAIL",
	"mail.from_name":  "FROM_NAME",
	"gemini.api_key":  "GOOGLE_API_KEY",
	"openai.api_key":  "OPENAI_API_KEY",
	"bedrock.region":  "AWS_REGION",
}

// New creates a new configuration instance
func New() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/contact-intake/")
	v.AddConfigPath("$HOME/.contact-intake")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	bindEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration that reads an explicit config file
func NewFromFile(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func loadEnvFiles() {
	for _, file := range envFiles {
		// Missing files are expected outside local development
		_ = godotenv.Load(file)
	}
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CONTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range legacyEnv {
		prefixed := "CONTACT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, name)
	}
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "gemini")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 26<<20)
	v.SetDefault("server.max_memory", 8<<20)
	v.SetDefault("server.trust_forwarded_for", true)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 16384)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 16384)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 16384)

	// SMTP defaults
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.tls", "starttls")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.helo_name", "localhost")

	// Mail defaults
	v.SetDefault("mail.from_name", "Om Prakash")
	v.SetDefault("mail.from_email", "")
	v.SetDefault("mail.to_email", "")

	// DKIM defaults
	v.SetDefault("dkim.enabled", false)
	v.SetDefault("dkim.domain", "")
	v.SetDefault("dkim.selector", "")
	v.SetDefault("dkim.private_key_path", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.capacity", 500)
	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("ratelimit.threshold", 50)

	// Pipeline defaults
	v.SetDefault("pipeline.classifier_timeout", "20s")
	v.SetDefault("pipeline.personalizer_timeout", "15s")
	v.SetDefault("pipeline.send_timeout", "30s")
	v.SetDefault("pipeline.max_attachment_bytes", 25<<20)

	// Spam defaults
	v.SetDefault("spam.fail_open", false)
	v.SetDefault("spam.trusted_domains", []string{})

	// Audit log defaults
	v.SetDefault("audit_log.type", "none")
	v.SetDefault("audit_log.retention", "720h")
	v.SetDefault("audit_log.cleanup_frequency", "1h")
	v.SetDefault("audit_log.buffer_size", 256)
	v.SetDefault("audit_log.sqlite_path", "/data/contact_audit.db")
	v.SetDefault("audit_log.mysql_dsn", "user:password@tcp(localhost:3306)/contact_intake")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
