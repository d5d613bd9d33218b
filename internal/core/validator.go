package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinNameLength     = 2
	MinMessageLength  = 10
	MaxMessageLength  = 15000
	MaxAttachmentSize = 25 * 1024 * 1024

	FieldName       = "name"
	FieldEmail      = "email"
	FieldMessage    = "message"
	FieldHoneypot   = "honeypot"
	FieldAttachment = "attachment"
)

// ErrAttachmentTooLarge is returned when an attachment exceeds the size limit
var ErrAttachmentTooLarge = errors.New("attachment exceeds the size limit")

// FieldErrors maps a field name to every rule it violated
type FieldErrors map[string][]string

// Add records a violation for field
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Validator applies the contact form rules to raw input
type Validator struct {
	maxAttachmentSize int64
}

// NewValidator creates a validator. A non-positive limit falls back to MaxAttachmentSize.
func NewValidator(maxAttachmentSize int64) *Validator {
	if maxAttachmentSize <= 0 {
		maxAttachmentSize = MaxAttachmentSize
	}
	return &Validator{maxAttachmentSize: maxAttachmentSize}
}

// Validate checks every field and returns all violations at once.
// The returned submission is nil whenever errors are non-empty.
func (v *Validator) Validate(raw *RawSubmission) (*Submission, FieldErrors) {
	errs := FieldErrors{}
	if raw == nil {
		raw = &RawSubmission{}
	}

	name, ok := field(raw, FieldName)
	switch {
	case !ok:
		errs.Add(FieldName, "Name is required.")
	case utf8.RuneCountInString(name) < MinNameLength:
		errs.Add(FieldName, fmt.Sprintf("Name must be at least %d characters.", MinNameLength))
	}

	email, ok := field(raw, FieldEmail)
	switch {
	case !ok:
		errs.Add(FieldEmail, "Email is required.")
	case !validEmail(email):
		errs.Add(FieldEmail, "Please enter a valid email address.")
	}

	message, ok := field(raw, FieldMessage)
	switch {
	case !ok:
		errs.Add(FieldMessage, "Message is required.")
	case utf8.RuneCountInString(message) < MinMessageLength:
		errs.Add(FieldMessage, fmt.Sprintf("Message must be at least %d characters.", MinMessageLength))
	case utf8.RuneCountInString(message) > MaxMessageLength:
		errs.Add(FieldMessage, fmt.Sprintf("Message must not exceed %d characters.", MaxMessageLength))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	honeypot := raw.Fields[FieldHoneypot]
	return &Submission{
		Name:           name,
		Email:          email,
		Message:        message,
		HoneypotFilled: honeypot != "",
		Attachment:     raw.Attachment,
	}, nil
}

// CheckAttachment enforces the attachment size limit
func (v *Validator) CheckAttachment(a *Attachment) error {
	if a == nil {
		return nil
	}
	size := a.Size
	if n := int64(len(a.Content)); n > size {
		size = n
	}
	if size > v.maxAttachmentSize {
		return fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, size)
	}
	return nil
}

// field returns the trimmed, NFC-normalized value and whether the key was sent
func field(raw *RawSubmission, key string) (string, bool) {
	value, ok := raw.Fields[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(norm.NFC.String(value)), true
}

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	if addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}
