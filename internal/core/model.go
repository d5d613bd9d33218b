package core

import (
	"time"
)

// RawSubmission holds the form fields exactly as they arrived.
// Fields contains only the keys that were present in the request.
type RawSubmission struct {
	Fields     map[string]string
	Attachment *Attachment
}

// Attachment is an uploaded file carried alongside a submission
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// Submission is a validated contact form submission
type Submission struct {
	Name           string
	Email          string
	Message        string
	HoneypotFilled bool
	Attachment     *Attachment
}

// ClassificationRequest is the input handed to the spam classifier
type ClassificationRequest struct {
	OriginIdentifier string
	Content          string
	HoneypotFilled   bool
}

// SpamVerdict represents the result of spam classification
type SpamVerdict struct {
	IsSpam bool
	Reason string
	Source string
}

// Address is a mailbox with an optional display name
type Address struct {
	Name  string
	Email string
}

// OutboundMessage is a mail message ready for composition and delivery
type OutboundMessage struct {
	From        Address
	To          []Address
	ReplyTo     *Address
	Subject     string
	Text        string
	HTML        string
	Attachments []*Attachment
	Date        time.Time
}

// Recipient identifies which notification an outcome belongs to
type Recipient string

const (
	RecipientOperator Recipient = "operator"
	RecipientSender   Recipient = "sender"
)

// NotificationOutcome records the result of one notification attempt
type NotificationOutcome struct {
	Recipient Recipient
	Attempted bool
	Delivered bool
	Err       error
}

// DispatchReport holds both notification outcomes of a submission
type DispatchReport struct {
	Operator NotificationOutcome
	Sender   NotificationOutcome
}

// LogLevel is the severity of a LogEntry
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is a single record handed to a LogSink
type LogEntry struct {
	Level   LogLevel
	Message string
	Data    map[string]any
	Time    time.Time
}

// Request is one inbound submission attempt as seen by the pipeline
type Request struct {
	Origin    string
	UserAgent string
	RequestID string
	Form      FormReader
}

// ResponseBody is the JSON body returned to the browser
type ResponseBody struct {
	Message             string              `json:"message"`
	PersonalizedMessage string              `json:"personalizedMessage,omitempty"`
	Errors              map[string][]string `json:"errors,omitempty"`
}

// Response is the terminal state of a pipeline run
type Response struct {
	Status int
	Body   ResponseBody
}
