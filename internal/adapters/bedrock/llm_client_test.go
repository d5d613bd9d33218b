package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestCompleteModelFamilies(t *testing.T) {
	tests := []struct {
		name       string
		modelID    string
		response   string
		want       string
		requestKey string
	}{
		{
			name:       "claude",
			modelID:    "anthropic.claude-3-haiku-20240307-v1:0",
			response:   `{"content":[{"type":"text","text":" {\"isSpam\":false} "}],"stop_reason":"end_turn"}`,
			want:       `{"isSpam":false}`,
			requestKey: "messages",
		},
		{
			name:       "titan",
			modelID:    "amazon.titan-text-express-v1",
			response:   `{"results":[{"outputText":"{\"isSpam\":true}"}]}`,
			want:       `{"isSpam":true}`,
			requestKey: "inputText",
		},
		{
			name:       "generic",
			modelID:    "meta.llama3-8b-instruct-v1:0",
			response:   `{"output":"{\"personalizedMessage\":\"Thanks\"}"}`,
			want:       `{"personalizedMessage":"Thanks"}`,
			requestKey: "prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &fakeInvoker{body: tt.response}
			client := NewBedrockClient(invoker, tt.modelID, 200, 0.1, 0.9, zaptest.NewLogger(t))

			text, err := client.Complete(context.Background(), "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)

			require.NotNil(t, invoker.input)
			assert.Equal(t, tt.modelID, *invoker.input.ModelId)
			var payload map[string]any
			require.NoError(t, json.Unmarshal(invoker.input.Body, &payload))
			assert.Contains(t, payload, tt.requestKey)
		})
	}
}

func TestCompleteClaudeRequestShape(t *testing.T) {
	invoker := &fakeInvoker{body: `{"content":[{"type":"text","text":"ok"}]}`}
	client := NewBedrockClient(invoker, "anthropic.claude-3-haiku-20240307-v1:0", 300, 0.2, 0.8, zaptest.NewLogger(t))

	_, err := client.Complete(context.Background(), "classify")
	require.NoError(t, err)

	var payload struct {
		AnthropicVersion string `json:"anthropic_version"`
		MaxTokens        int    `json:"max_tokens"`
		Messages         []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.input.Body, &payload))
	assert.Equal(t, anthropicVersion, payload.AnthropicVersion)
	assert.Equal(t, 300, payload.MaxTokens)
	require.Len(t, payload.Messages, 1)
	assert.Equal(t, "user", payload.Messages[0].Role)
	assert.Equal(t, "classify", payload.Messages[0].Content)
}

func TestCompleteErrors(t *testing.T) {
	t.Run("invoke failure", func(t *testing.T) {
		client := NewBedrockClient(&fakeInvoker{err: errors.New("throttled")}, "amazon.titan-text-express-v1", 10, 0, 0, zaptest.NewLogger(t))
		_, err := client.Complete(context.Background(), "x")
		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("empty titan results", func(t *testing.T) {
		client := NewBedrockClient(&fakeInvoker{body: `{"results":[]}`}, "amazon.titan-text-express-v1", 10, 0, 0, zaptest.NewLogger(t))
		_, err := client.Complete(context.Background(), "x")
		assert.ErrorContains(t, err, "empty response")
	})

	t.Run("claude without text", func(t *testing.T) {
		client := NewBedrockClient(&fakeInvoker{body: `{"content":[]}`}, "anthropic.claude-3-haiku-20240307-v1:0", 10, 0, 0, zaptest.NewLogger(t))
		_, err := client.Complete(context.Background(), "x")
		assert.ErrorContains(t, err, "empty response")
	})
}
