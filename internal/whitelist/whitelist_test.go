package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestIsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{" Example.com ", "@partner.org", ""}, zaptest.NewLogger(t))

	tests := []struct {
		from string
		want bool
	}{
		{"jo@example.com", true},
		{"JO@EXAMPLE.COM", true},
		{"Jo <jo@example.com>", true},
		{"jo@mail.example.com", true},
		{"jo@partner.org", true},
		{"jo@notexample.com", false},
		{"jo@example.com.evil.net", false},
		{"not-an-address", false},
		{"jo@", false},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsWhitelisted(tt.from))
		})
	}
}

func TestEmptyChecker(t *testing.T) {
	assert.False(t, NewChecker(nil, nil).IsWhitelisted("jo@example.com"))
}
