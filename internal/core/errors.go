package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMailAuthentication is returned by transports when the mail server rejects the credentials
	ErrMailAuthentication = errors.New("mail server rejected credentials")
	// ErrFormTooLarge is returned by form readers when the request body exceeds the upload limit
	ErrFormTooLarge = errors.New("request body exceeds the upload limit")
	// ErrMalformedForm is returned by form readers when the body cannot be parsed
	ErrMalformedForm = errors.New("malformed form submission")
	// ErrLLMNotConfigured is returned by LLM clients created without credentials
	ErrLLMNotConfigured = errors.New("llm provider is not configured")
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindRateLimitExceeded             ErrorKind = "rate_limit_exceeded"
	KindConfigurationMissing          ErrorKind = "configuration_missing"
	KindValidationFailed              ErrorKind = "validation_failed"
	KindFormUnreadable                ErrorKind = "form_unreadable"
	KindAttachmentTooLarge            ErrorKind = "attachment_too_large"
	KindSpamClassificationUnavailable ErrorKind = "spam_classification_unavailable"
	KindOperatorNotificationFailed    ErrorKind = "operator_notification_failed"
	KindSenderNotificationFailed      ErrorKind = "sender_notification_failed"
	KindPersonalizationUnavailable    ErrorKind = "personalization_unavailable"
)

const (
	MessageSuccess            = "Your message has been sent successfully."
	MessageRateLimited        = "Too many requests, please try again later."
	MessageInvalidInput       = "Invalid input."
	MessageAttachmentTooLarge = "File size exceeds the 25MB limit."
	MessageInternalError      = "An internal server error occurred."
	MessageMailAuthentication = "Authentication error with email provider. Please double-check your SMTP credentials. " +
		"If you are using Gmail, ensure you have set up and are using an \"App Password\"."

	// FallbackAcknowledgment is returned when the personalizer is unavailable
	FallbackAcknowledgment = "Thank you for your message. We've received your submission and will get back to you shortly."

	// SpamPlaceholder replaces the message text sent to the personalizer for spam
	SpamPlaceholder = "spam"
)

// PipelineError is a failure that ends a pipeline run with a specific status
type PipelineError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newRateLimitError() *PipelineError {
	return &PipelineError{
		Kind:    KindRateLimitExceeded,
		Status:  http.StatusTooManyRequests,
		Message: MessageRateLimited,
	}
}

func newConfigurationError(missing []string) *PipelineError {
	return &PipelineError{
		Kind:   KindConfigurationMissing,
		Status: http.StatusInternalServerError,
		Message: fmt.Sprintf("Server configuration error: The following environment variables are missing: %s. "+
			"Please ensure they are set in your .env.local file and restart the server.", strings.Join(missing, ", ")),
	}
}

func newValidationError(fields map[string][]string, err error) *PipelineError {
	return &PipelineError{
		Kind:    KindValidationFailed,
		Status:  http.StatusBadRequest,
		Message: MessageInvalidInput,
		Fields:  fields,
		Err:     err,
	}
}

func newAttachmentError(err error) *PipelineError {
	return &PipelineError{
		Kind:    KindAttachmentTooLarge,
		Status:  http.StatusBadRequest,
		Message: MessageAttachmentTooLarge,
		Err:     err,
	}
}

func newFatalError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{
		Kind:   kind,
		Status: http.StatusInternalServerError,
		Err:    err,
	}
}

// ClientMessage returns the message shown to the browser for a server-side failure.
// Only mail authentication failures get a specific operator-facing hint.
func ClientMessage(err error) string {
	if errors.Is(err, ErrMailAuthentication) {
		return MessageMailAuthentication
	}
	return MessageInternalError
}
