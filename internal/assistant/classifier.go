package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/utils"
)

const classifyPromptFormat = `You are a spam filter that analyzes contact form submissions.

Decide whether the submission below is spam. Unsolicited advertising, SEO or marketing pitches, link farms, phishing, gibberish and automated probing are spam. Genuine questions, feedback, job or project inquiries and bug reports are not. If Honeypot Filled is true, the submission must always be marked as spam.

IP Address: %s
Honeypot Filled: %t
Content:
"""
%s
"""

Respond with a JSON object containing:
- isSpam: boolean (true if the submission is spam)
- reason: string (a short explanation of your decision)

Respond only with the JSON object and nothing else.`

// ErrMissingVerdict is returned when the model reply has no isSpam field
var ErrMissingVerdict = errors.New("model response did not include isSpam")

type classification struct {
	IsSpam *bool  `json:"isSpam"`
	Reason string `json:"reason"`
}

// SpamClassifier asks an LLM whether a submission is spam
type SpamClassifier struct {
	llm            core.LLMClient
	textProcessor  *utils.TextProcessor
	maxPromptBytes int
	logger         *zap.Logger
}

// NewSpamClassifier creates a classifier over llm. Content longer than
// maxPromptBytes is truncated before it is sent.
func NewSpamClassifier(llm core.LLMClient, textProcessor *utils.TextProcessor, maxPromptBytes int, logger *zap.Logger) *SpamClassifier {
	return &SpamClassifier{
		llm:            llm,
		textProcessor:  textProcessor,
		maxPromptBytes: maxPromptBytes,
		logger:         logger,
	}
}

// Classify returns the model's verdict for req
func (c *SpamClassifier) Classify(ctx context.Context, req core.ClassificationRequest) (*core.SpamVerdict, error) {
	content := c.textProcessor.ProcessText(req.Content, c.maxPromptBytes)
	prompt := fmt.Sprintf(classifyPromptFormat, req.OriginIdentifier, req.HoneypotFilled, content)

	reply, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("spam classification: %w", err)
	}

	var result classification
	if err := utils.DecodeJSONObject(reply, &result); err != nil {
		return nil, fmt.Errorf("spam classification: %w", err)
	}
	if result.IsSpam == nil {
		return nil, fmt.Errorf("spam classification: %w", ErrMissingVerdict)
	}

	verdict := &core.SpamVerdict{
		IsSpam: *result.IsSpam,
		Reason: strings.TrimSpace(result.Reason),
		Source: c.llm.Name(),
	}
	c.logger.Debug("Submission classified",
		zap.Bool("is_spam", verdict.IsSpam),
		zap.String("reason", verdict.Reason),
		zap.String("model", verdict.Source))

	return verdict, nil
}
