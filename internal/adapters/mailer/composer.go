package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/mikey/contact-intake/internal/core"
)

// Composer renders outbound messages as RFC 5322 bytes
type Composer struct {
	signer *DKIMSigner
}

// NewComposer creates a composer. signer may be nil.
func NewComposer(signer *DKIMSigner) *Composer {
	return &Composer{signer: signer}
}

// Compose builds the MIME message: text and HTML alternatives, followed by
// any attachments
func (c *Composer) Compose(msg *core.OutboundMessage) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	if len(msg.To) == 0 {
		return nil, errors.New("message has no recipients")
	}

	header := c.header(msg)

	var buf bytes.Buffer
	if len(msg.Attachments) == 0 {
		inline, err := mail.CreateInlineWriter(&buf, header)
		if err != nil {
			return nil, fmt.Errorf("failed to create message: %w", err)
		}
		if err := writeAlternatives(inline, msg); err != nil {
			return nil, err
		}
		if err := inline.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish message: %w", err)
		}
	} else {
		mw, err := mail.CreateWriter(&buf, header)
		if err != nil {
			return nil, fmt.Errorf("failed to create message: %w", err)
		}
		inline, err := mw.CreateInline()
		if err != nil {
			return nil, fmt.Errorf("failed to create message body: %w", err)
		}
		if err := writeAlternatives(inline, msg); err != nil {
			return nil, err
		}
		if err := inline.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish message body: %w", err)
		}
		for _, att := range msg.Attachments {
			if err := writeAttachment(mw, att); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish message: %w", err)
		}
	}

	return c.signer.Sign(buf.Bytes(), msg.From.Email)
}

func (c *Composer) header(msg *core.OutboundMessage) mail.Header {
	var h mail.Header

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{toAddress(msg.From)})
	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, toAddress(addr))
	}
	h.SetAddressList("To", to)
	if msg.ReplyTo != nil {
		h.SetAddressList("Reply-To", []*mail.Address{toAddress(*msg.ReplyTo)})
	}
	h.SetSubject(msg.Subject)
	h.SetMessageID(fmt.Sprintf("%s@%s", uuid.NewString(), messageIDDomain(msg.From.Email)))
	return h
}

func writeAlternatives(w *mail.InlineWriter, msg *core.OutboundMessage) error {
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		var h mail.InlineHeader
		h.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return fmt.Errorf("failed to write %s part: %w", p.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("failed to close %s part: %w", p.contentType, err)
		}
	}
	return nil
}

func writeAttachment(mw *mail.Writer, att *core.Attachment) error {
	contentType := att.ContentType
	if _, _, err := mime.ParseMediaType(contentType); err != nil || contentType == "" {
		contentType = "application/octet-stream"
	}

	var h mail.AttachmentHeader
	h.Set("Content-Type", contentType)
	h.SetFilename(att.Filename)
	h.Set("Content-Transfer-Encoding", "base64")

	w, err := mw.CreateAttachment(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment %q: %w", att.Filename, err)
	}
	if _, err := w.Write(att.Content); err != nil {
		return fmt.Errorf("failed to write attachment %q: %w", att.Filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close attachment %q: %w", att.Filename, err)
	}
	return nil
}

func toAddress(a core.Address) *mail.Address {
	return &mail.Address{Name: a.Name, Address: a.Email}
}

func messageIDDomain(from string) string {
	if d := domainOf(from); d != "" {
		return d
	}
	return "localhost"
}
