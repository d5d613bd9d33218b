package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt and returns the raw model output
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the model identifier used for completions
	Name() string
}

// SpamClassifier decides whether a submission is spam
type SpamClassifier interface {
	Classify(ctx context.Context, req ClassificationRequest) (*SpamVerdict, error)
}

// ResponsePersonalizer writes a short acknowledgment for a message
type ResponsePersonalizer interface {
	Personalize(ctx context.Context, message string) (string, error)
}

// MailTransport delivers a composed message
type MailTransport interface {
	Send(ctx context.Context, msg *OutboundMessage) error
}

// LogSink records pipeline events. Implementations must not block for long
// and must never panic into the caller.
type LogSink interface {
	Record(ctx context.Context, entry LogEntry)
}

// RateLimiter answers whether an origin may submit and counts the attempt
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) bool
}

// FormReader lazily parses the submitted form
type FormReader interface {
	ReadForm(ctx context.Context) (*RawSubmission, error)
}

// ConfigChecker reports required settings that are missing
type ConfigChecker interface {
	MissingRequired() []string
}

// SenderAllowlist reports whether a sender address belongs to a trusted domain
type SenderAllowlist interface {
	IsWhitelisted(from string) bool
}

// Dispatcher sends the notifications for a clean submission
type Dispatcher interface {
	Dispatch(ctx context.Context, sub *Submission, origin string) (DispatchReport, error)
}

// Processor runs one submission attempt to its terminal response
type Processor interface {
	Process(ctx context.Context, req *Request) *Response
}
