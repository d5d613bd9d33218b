package core

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	operatorSubjectPrefix = "New Website Message from "
	acknowledgmentSubject = "We have received your message!"
)

// MailSettings holds the addresses used for outgoing notifications
type MailSettings struct {
	FromName      string
	FromEmail     string
	OperatorEmail string
}

type mailView struct {
	Name           string
	Email          string
	Message        string
	FromName       string
	AttachmentName string
	Year           int
}

var templateFuncs = map[string]any{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

var operatorText = texttemplate.Must(texttemplate.New("operator.txt").Parse(
	`You have a new contact form submission.

From: {{.Name}}
Email: {{.Email}}

Message:
{{.Message}}

You can reply to this email directly to respond to {{.Name}}.`))

var operatorHTML = htmltemplate.Must(htmltemplate.New("operator.html").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 8px; border: 1px solid #e0e0e0; }
.header { background-color: #2E8B57; color: #ffffff; padding: 20px; text-align: center; }
.content { padding: 30px; line-height: 1.6; color: #333333; }
.message-box { background-color: #f9f9f9; border-left: 4px solid #4682B4; padding: 15px; margin: 20px 0; }
.footer { background-color: #eeeeee; color: #777777; padding: 15px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>New Message!</h1></div>
<div class="content">
<h2>You've received a new message.</h2>
<p><strong>From:</strong> {{.Name}}</p>
<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
<h3>Message:</h3>
<div class="message-box"><p>{{range $i, $l := lines .Message}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p></div>
<a href="mailto:{{.Email}}">Respond to {{.Name}}</a>
</div>
<div class="footer"><p>This email was sent from your website's contact form.</p></div>
</div>
</body>
</html>`))

var acknowledgmentText = texttemplate.Must(texttemplate.New("ack.txt").Parse(
	`Hi {{.Name}},

Thank you for reaching out! We have successfully received your message and will get back to you as soon as possible.

For your reference, here is a copy of your submission:
---
{{.Message}}{{if .AttachmentName}}
Attachment: {{.AttachmentName}}{{end}}
---

Best regards,
The {{.FromName}} Team

(This is an automated message, please do not reply.)`))

var acknowledgmentHTML = htmltemplate.Must(htmltemplate.New("ack.html").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; background-color: #F0FFF0; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 8px; border: 1px solid #e0e0e0; }
.header { background-color: #2E8B57; color: #ffffff; padding: 20px; text-align: center; }
.content { padding: 30px; line-height: 1.6; color: #333333; }
.message-box { background-color: #F0FFF0; border-left: 4px solid #2E8B57; padding: 15px; margin: 20px 0; word-wrap: break-word; }
.footer { background-color: #eeeeee; color: #777777; padding: 15px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Thank You!</h1></div>
<div class="content">
<h2>Hi {{.Name}},</h2>
<p>Thank you for reaching out. We have received your message and will get back to you as soon as possible.</p>
<p>For your reference, here is a copy of your submission:</p>
<div class="message-box">
<p>{{range $i, $l := lines .Message}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{if .AttachmentName}}<p style="margin-top: 15px; padding-top: 15px; border-top: 1px solid #eeeeee;"><strong>Attachment:</strong> {{.AttachmentName}}</p>{{end}}
</div>
<p>Best regards,<br>The {{.FromName}} Team</p>
</div>
<div class="footer">
<p>&copy; {{.Year}} {{.FromName}}. All rights reserved.</p>
<p>This is an automated message. Please do not reply directly to this email.</p>
</div>
</div>
</body>
</html>`))

func newMailView(sub *Submission, settings MailSettings, now time.Time) mailView {
	view := mailView{
		Name:     sub.Name,
		Email:    sub.Email,
		Message:  sub.Message,
		FromName: settings.FromName,
		Year:     now.Year(),
	}
	if sub.Attachment != nil {
		view.AttachmentName = sub.Attachment.Filename
	}
	return view
}

// BuildOperatorMessage renders the notification sent to the site operator.
// sub must already be sanitized.
func BuildOperatorMessage(sub *Submission, settings MailSettings, now time.Time) (*OutboundMessage, error) {
	view := newMailView(sub, settings, now)

	var text, html strings.Builder
	if err := operatorText.Execute(&text, view); err != nil {
		return nil, err
	}
	if err := operatorHTML.Execute(&html, view); err != nil {
		return nil, err
	}

	msg := &OutboundMessage{
		From:    Address{Name: settings.FromName, Email: settings.FromEmail},
		To:      []Address{{Email: settings.OperatorEmail}},
		ReplyTo: &Address{Email: sub.Email},
		Subject: operatorSubjectPrefix + sub.Name,
		Text:    text.String(),
		HTML:    html.String(),
		Date:    now,
	}
	if sub.Attachment != nil {
		msg.Attachments = []*Attachment{sub.Attachment}
	}
	return msg, nil
}

// BuildAcknowledgmentMessage renders the auto-reply sent to the submitter.
// It never carries the attachment itself, only its name.
func BuildAcknowledgmentMessage(sub *Submission, settings MailSettings, now time.Time) (*OutboundMessage, error) {
	view := newMailView(sub, settings, now)

	var text, html strings.Builder
	if err := acknowledgmentText.Execute(&text, view); err != nil {
		return nil, err
	}
	if err := acknowledgmentHTML.Execute(&html, view); err != nil {
		return nil, err
	}

	return &OutboundMessage{
		From:    Address{Name: settings.FromName, Email: settings.FromEmail},
		To:      []Address{{Name: sub.Name, Email: sub.Email}},
		Subject: acknowledgmentSubject,
		Text:    text.String(),
		HTML:    html.String(),
		Date:    now,
	}, nil
}
