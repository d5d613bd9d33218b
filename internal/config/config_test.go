package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.Equal(t, "Om Prakash", cfg.GetMail().FromName)

	rl, err := cfg.GetRateLimit()
	require.NoError(t, err)
	assert.Equal(t, RateLimitConfig{Capacity: 500, Window: 15 * time.Minute, Threshold: 50}, rl)

	p, err := cfg.GetPipeline()
	require.NoError(t, err)
	assert.Equal(t, int64(25<<20), p.MaxAttachmentBytes)
	assert.False(t, p.FailOpen)

	srv, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", srv.ListenAddress)
	assert.Greater(t, srv.MaxBodyBytes, p.MaxAttachmentBytes)

	assert.Equal(t, "smtp.gmail.com:587", cfg.GetSMTP().Address())
}

func TestMissingRequired(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     []string
	}{
		{
			name: "nothing set",
			want: []string{"SMTP_USER", "SMTP_PASS", "FROM_EMAIL", "TO_EMAIL", "GOOGLE_API_KEY"},
		},
		{
			name: "all set",
			settings: map[string]any{
				"smtp.username":   "user",
				"smtp.password":   "pass",
				"mail.from_email": "from@example.com",
				"mail.to_email":   "to@example.com",
				"gemini.api_key":  "key",
			},
		},
		{
			name: "openai provider",
			settings: map[string]any{
				"llm.provider":    "openai",
				"smtp.username":   "user",
				"smtp.password":   "pass",
				"mail.from_email": "from@example.com",
				"mail.to_email":   "to@example.com",
			},
			want: []string{"OPENAI_API_KEY"},
		},
		{
			name: "bedrock provider",
			settings: map[string]any{
				"llm.provider":    "bedrock",
				"smtp.username":   "user",
				"mail.from_email": "from@example.com",
				"mail.to_email":   "to@example.com",
			},
			want: []string{"SMTP_PASS", "AWS_REGION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewEmptyViper()
			for k, val := range tt.settings {
				v.Set(k, val)
			}
			assert.Equal(t, tt.want, NewFromViper(v).MissingRequired())
		})
	}
}

func TestUnprefixedEnvironment(t *testing.T) {
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("FROM_NAME", "Acme")
	t.Setenv("CONTACT_RATELIMIT_THRESHOLD", "7")

	v := NewEmptyViper()
	bindEnv(v)
	cfg := NewFromViper(v)

	assert.Equal(t, "mailer", cfg.GetSMTP().Username)
	assert.Equal(t, "Acme", cfg.GetMail().FromName)
	rl, err := cfg.GetRateLimit()
	require.NoError(t, err)
	assert.Equal(t, 7, rl.Threshold)
}

func TestPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("CONTACT_SMTP_USERNAME", "prefixed")
	t.Setenv("SMTP_USER", "legacy")

	v := NewEmptyViper()
	bindEnv(v)

	assert.Equal(t, "prefixed", NewFromViper(v).GetSMTP().Username)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\nratelimit:\n  window: 1m\n"), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	rl, err := cfg.GetRateLimit()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, rl.Window)
}

func TestInvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("pipeline.send_timeout", "soon")

	_, err := NewFromViper(v).GetPipeline()
	assert.ErrorContains(t, err, "pipeline.send_timeout")
}
