package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/utils"
)

const personalizePromptFormat = `You are a friendly and helpful assistant. Write a personalized success message for someone who has just submitted a contact form.

The message must be a single, warm and reassuring sentence. Briefly acknowledge the main topic of their message without being too specific and without making any promises.

Examples:
- Message about "pricing for a project": "Thank you for your inquiry about our pricing! We've received your message and will get back to you with the details shortly."
- Bug report about "the login page": "Thank you for reporting the issue with the login page. We'll look into it right away."
- General question about "your services": "Thank you for your interest in our services! We've received your message and will be in touch soon."

User's message:
"""
%s
"""

Respond with a JSON object containing:
- personalizedMessage: string

Respond only with the JSON object and nothing else.`

// ErrEmptyPersonalization is returned when the model produced no message
var ErrEmptyPersonalization = errors.New("model response did not include personalizedMessage")

type personalization struct {
	PersonalizedMessage string `json:"personalizedMessage"`
}

// Personalizer asks an LLM for a one-sentence acknowledgment
type Personalizer struct {
	llm            core.LLMClient
	textProcessor  *utils.TextProcessor
	maxPromptBytes int
}

// NewPersonalizer creates a personalizer over llm
func NewPersonalizer(llm core.LLMClient, textProcessor *utils.TextProcessor, maxPromptBytes int) *Personalizer {
	return &Personalizer{
		llm:            llm,
		textProcessor:  textProcessor,
		maxPromptBytes: maxPromptBytes,
	}
}

// Personalize returns an acknowledgment tailored to message
func (p *Personalizer) Personalize(ctx context.Context, message string) (string, error) {
	prompt := fmt.Sprintf(personalizePromptFormat, p.textProcessor.ProcessText(message, p.maxPromptBytes))

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("personalization: %w", err)
	}

	var result personalization
	if err := utils.DecodeJSONObject(reply, &result); err != nil {
		return "", fmt.Errorf("personalization: %w", err)
	}

	text := strings.TrimSpace(result.PersonalizedMessage)
	if text == "" {
		return "", ErrEmptyPersonalization
	}
	return text, nil
}
