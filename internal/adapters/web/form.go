package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/mikey/contact-intake/internal/core"
)

var formFields = []string{core.FieldName, core.FieldEmail, core.FieldMessage, core.FieldHoneypot}

// requestForm reads the submission from a multipart or urlencoded body
type requestForm struct {
	r         *http.Request
	maxMemory int64
}

// ReadForm parses the body. Only keys present in the request appear in Fields.
func (f *requestForm) ReadForm(_ context.Context) (*core.RawSubmission, error) {
	mediaType, _, err := mime.ParseMediaType(f.r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedForm, err)
	}

	switch mediaType {
	case "multipart/form-data":
		err = f.r.ParseMultipartForm(f.maxMemory)
	case "application/x-www-form-urlencoded":
		err = f.r.ParseForm()
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", core.ErrMalformedForm, mediaType)
	}
	if err != nil {
		return nil, mapParseError(err)
	}

	raw := &core.RawSubmission{Fields: make(map[string]string, len(formFields))}
	for _, key := range formFields {
		if values, ok := f.r.PostForm[key]; ok && len(values) > 0 {
			raw.Fields[key] = values[0]
		}
	}

	if f.r.MultipartForm != nil {
		att, err := f.attachment()
		if err != nil {
			return nil, err
		}
		raw.Attachment = att
	}
	return raw, nil
}

func (f *requestForm) attachment() (*core.Attachment, error) {
	file, header, err := f.r.FormFile(core.FieldAttachment)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedForm, err)
	}
	defer file.Close()

	// Browsers send an empty part when no file was chosen
	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &core.Attachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     content,
	}, nil
}

// cleanup removes temporary files created for large uploads
func (f *requestForm) cleanup() {
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

func mapParseError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return fmt.Errorf("%w: %v", core.ErrFormTooLarge, err)
	}
	return fmt.Errorf("%w: %v", core.ErrMalformedForm, err)
}
