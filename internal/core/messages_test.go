package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSettings = MailSettings{FromName: "Om Prakash", FromEmail: "noreply@example.com", OperatorEmail: "owner@example.com"}

func TestBuildOperatorMessage(t *testing.T) {
	sub := &Submission{
		Name:       "Jo",
		Email:      "jo@x.com",
		Message:    "line one\nline & two",
		Attachment: &Attachment{Filename: "cv.pdf", Content: []byte("%PDF")},
	}

	msg, err := BuildOperatorMessage(sub, testSettings, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, Address{Name: "Om Prakash", Email: "noreply@example.com"}, msg.From)
	assert.Equal(t, []Address{{Email: "owner@example.com"}}, msg.To)
	assert.Equal(t, &Address{Email: "jo@x.com"}, msg.ReplyTo)
	assert.Equal(t, "New Website Message from Jo", msg.Subject)
	assert.Contains(t, msg.Text, "From: Jo\nEmail: jo@x.com")
	assert.Contains(t, msg.Text, "line one\nline & two")
	assert.Contains(t, msg.HTML, "line one<br>line &amp; two")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "cv.pdf", msg.Attachments[0].Filename)
}

func TestBuildAcknowledgmentMessage(t *testing.T) {
	sub := &Submission{Name: "Jo", Email: "jo@x.com", Message: "Hello there", Attachment: &Attachment{Filename: "cv.pdf"}}

	msg, err := BuildAcknowledgmentMessage(sub, testSettings, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "We have received your message!", msg.Subject)
	assert.Equal(t, "jo@x.com", msg.To[0].Email)
	assert.Nil(t, msg.ReplyTo)
	assert.Empty(t, msg.Attachments)
	assert.Contains(t, msg.Text, "Hello there\nAttachment: cv.pdf")
	assert.Contains(t, msg.Text, "The Om Prakash Team")
	assert.Contains(t, msg.HTML, "&copy; 2025 Om Prakash")
	assert.Contains(t, msg.HTML, "cv.pdf")
}

func TestBuildAcknowledgmentMessageWithoutAttachment(t *testing.T) {
	sub := &Submission{Name: "Jo", Email: "jo@x.com", Message: "Hello there"}

	msg, err := BuildAcknowledgmentMessage(sub, testSettings, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, msg.Text, "Attachment:")
	assert.NotContains(t, msg.HTML, "Attachment:")
}
