package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mikey/contact-intake/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for name, want := range tests {
		got, err := parseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("logging.level", "loud")

	_, err := InitLogger(config.NewFromViper(v))
	assert.ErrorContains(t, err, "logging.level")
}
