package core

import (
	"regexp"
)

// tagPattern matches anything from '<' up to and including the next '>', or to
// the end of input when the tag is left open
var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// StripTags removes tag-like spans from s. The result never contains '<',
// so applying it twice yields the same string.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// SanitizeSubmission returns a copy of sub with every user-controlled text
// field passed through StripTags. The attachment content is left untouched.
func SanitizeSubmission(sub *Submission) *Submission {
	if sub == nil {
		return nil
	}
	clean := *sub
	clean.Name = StripTags(sub.Name)
	clean.Email = StripTags(sub.Email)
	clean.Message = StripTags(sub.Message)
	if sub.Attachment != nil {
		att := *sub.Attachment
		att.Filename = StripTags(att.Filename)
		clean.Attachment = &att
	}
	return &clean
}
