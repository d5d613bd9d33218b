package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are an assistant for a website contact form. Respond only with JSON."

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Name returns the model used for completions
func (c *OpenAIClient) Name() string {
	return c.modelName
}

// Complete sends the prompt as a single chat turn and returns the model's reply
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("OpenAI completion received",
		zap.String("id", resp.ID),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return text, nil
}
