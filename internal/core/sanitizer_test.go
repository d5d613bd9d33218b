package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b>", "bold"},
		{"a < b", "a "},
		{"<<script>>alert(1)", ">alert(1)"},
		{"unterminated <img src=x", "unterminated "},
		{"5 > 3", "5 > 3"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestStripTagsIdempotent(t *testing.T) {
	inputs := []string{
		"<<a>>", "<a<b>c>", "x<y<z", ">>><<<", "<p>hi</p><", "<<<>>>text<",
		"multi\nline <br>\n<div>", "émoji 😀 <span>ok</span>",
	}
	for _, in := range inputs {
		once := StripTags(in)
		assert.Equal(t, once, StripTags(once), "input %q", in)
		assert.NotContains(t, once, "<")
	}
}

func TestSanitizeSubmissionCopies(t *testing.T) {
	sub := &Submission{
		Name:       "<i>Jo</i>",
		Email:      "jo@x.com",
		Message:    "Hi <b>there</b>",
		Attachment: &Attachment{Filename: "<x>cv.pdf", Content: []byte("<raw>")},
	}

	clean := SanitizeSubmission(sub)

	assert.Equal(t, "Jo", clean.Name)
	assert.Equal(t, "Hi there", clean.Message)
	assert.Equal(t, "cv.pdf", clean.Attachment.Filename)
	assert.Equal(t, []byte("<raw>"), clean.Attachment.Content)
	assert.Equal(t, "<i>Jo</i>", sub.Name)
	assert.Equal(t, "<x>cv.pdf", sub.Attachment.Filename)
}
