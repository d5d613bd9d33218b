package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
)

// recordingProcessor reads the form and answers with a fixed response
type recordingProcessor struct {
	req     *core.Request
	raw     *core.RawSubmission
	formErr error
	resp    *core.Response
}

func (p *recordingProcessor) Process(ctx context.Context, req *core.Request) *core.Response {
	p.req = req
	p.raw, p.formErr = req.Form.ReadForm(ctx)
	if p.resp != nil {
		return p.resp
	}
	return &core.Response{Status: http.StatusOK, Body: core.ResponseBody{Message: core.MessageSuccess, PersonalizedMessage: "Thanks!"}}
}

func newTestServer(t *testing.T, p core.Processor, cfg config.ServerConfig) http.Handler {
	t.Helper()
	if cfg.MaxMemory == 0 {
		cfg.MaxMemory = 1 << 20
	}
	return NewHTTPServer(cfg, p, zaptest.NewLogger(t)).Handler()
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" || content != nil {
		part, err := w.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestContactAPIReadsMultipartForm(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{TrustForwardedFor: true})

	body, contentType := multipartBody(t, map[string]string{
		"name":    "Jane",
		"email":   "jane@example.org",
		"message": "Hello, I would like a quote.",
	}, "notes.txt", []byte("some notes"))

	req := httptest.NewRequest(http.MethodPost, "/contact/api", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp core.ResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.MessageSuccess, resp.Message)
	assert.Equal(t, "Thanks!", resp.PersonalizedMessage)

	require.NotNil(t, p.req)
	assert.Equal(t, "203.0.113.7", p.req.Origin)
	assert.Equal(t, "test-agent", p.req.UserAgent)
	assert.NotEmpty(t, p.req.RequestID)
	assert.Equal(t, p.req.RequestID, rec.Header().Get("X-Request-ID"))

	require.NoError(t, p.formErr)
	assert.Equal(t, map[string]string{
		"name":    "Jane",
		"email":   "jane@example.org",
		"message": "Hello, I would like a quote.",
	}, p.raw.Fields)
	_, hasHoneypot := p.raw.Fields["honeypot"]
	assert.False(t, hasHoneypot)

	require.NotNil(t, p.raw.Attachment)
	assert.Equal(t, "notes.txt", p.raw.Attachment.Filename)
	assert.Equal(t, int64(10), p.raw.Attachment.Size)
	assert.Equal(t, []byte("some notes"), p.raw.Attachment.Content)
}

func TestContactAPIEmptyFilePartIsNoAttachment(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{})

	body, contentType := multipartBody(t, map[string]string{"name": "Jane"}, "", []byte{})
	req := httptest.NewRequest(http.MethodPost, "/contact/api", body)
	req.Header.Set("Content-Type", contentType)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, p.formErr)
	assert.Nil(t, p.raw.Attachment)
}

func TestContactAPIUrlencodedForm(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{})

	form := url.Values{"name": {"Jane"}, "honeypot": {""}}
	req := httptest.NewRequest(http.MethodPost, "/contact/api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "198.51.100.4:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, p.formErr)
	assert.Equal(t, map[string]string{"name": "Jane", "honeypot": ""}, p.raw.Fields)
	assert.Nil(t, p.raw.Attachment)
	assert.Equal(t, "198.51.100.4", p.req.Origin)
}

func TestContactAPIBodyTooLarge(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{MaxBodyBytes: 1024, MaxMemory: 512})

	body, contentType := multipartBody(t, map[string]string{"name": "Jane"}, "big.bin", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/contact/api", body)
	req.Header.Set("Content-Type", contentType)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.ErrorIs(t, p.formErr, core.ErrFormTooLarge)
}

func TestContactAPIMalformedForm(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/contact/api", strings.NewReader(`{"name":"Jane"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.ErrorIs(t, p.formErr, core.ErrMalformedForm)
}

func TestContactAPIRejectsOtherMethods(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact/api", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.Nil(t, p.req)
}

func TestContactAPIWritesPipelineStatus(t *testing.T) {
	p := &recordingProcessor{resp: &core.Response{
		Status: http.StatusBadRequest,
		Body: core.ResponseBody{
			Message: core.MessageInvalidInput,
			Errors:  map[string][]string{"name": {"Name is required."}},
		},
	}}
	h := newTestServer(t, p, config.ServerConfig{})

	body, contentType := multipartBody(t, map[string]string{"email": "jane@example.org"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/contact/api", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid input.","errors":{"name":["Name is required."]}}`,
		rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestServer(t, &recordingProcessor{}, config.ServerConfig{})

	tests := []struct {
		path        string
		wantHeaders bool
	}{
		{"/contact", true},
		{"/healthz", true},
		{"/contact/api", false},
		{"/api/anything", false},
		{"/static/contact.css", false},
		{"/favicon.ico", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			for name, value := range securityHeaders {
				switch {
				case tt.wantHeaders:
					assert.Equal(t, value, rec.Header().Get(name), name)
				case name == "X-Content-Type-Options":
					// http.Error sets nosniff on its own
				default:
					assert.Empty(t, rec.Header().Get(name), name)
				}
			}
		})
	}
}

func TestSecurityHeadersMiddlewareSkipsExemptPaths(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, path := range []string{"/contact/api", "/api/anything", "/static/contact.css", "/favicon.ico"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		for name := range securityHeaders {
			assert.Empty(t, rec.Header().Get(name), "%s on %s", name, path)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))
	for name, value := range securityHeaders {
		assert.Equal(t, value, rec.Header().Get(name), name)
	}
}

func TestStaticRoutes(t *testing.T) {
	h := newTestServer(t, &recordingProcessor{}, config.ServerConfig{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="honeypot"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/contact", rec.Header().Get("Location"))
}

func TestRequestIDPropagated(t *testing.T) {
	p := &recordingProcessor{}
	h := newTestServer(t, p, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/contact/api", strings.NewReader("name=Jane"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "upstream-id", p.req.RequestID)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		xff     string
		remote  string
		trusted bool
		want    string
	}{
		{"first forwarded entry", "203.0.113.7, 10.0.0.1", "10.0.0.1:1234", true, "203.0.113.7"},
		{"no forwarded header", "", "10.0.0.1:1234", true, UnknownOrigin},
		{"untrusted proxy uses peer", "203.0.113.7", "10.0.0.1:1234", false, "10.0.0.1"},
		{"bad peer address", "", "garbage", false, UnknownOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/contact/api", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trusted))
		})
	}
}

func TestStartWarnsWhenTrustingForwardedFor(t *testing.T) {
	tests := []struct {
		name  string
		trust bool
		warns int
	}{
		{"trusted header", true, 1},
		{"peer address", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, logs := observer.New(zapcore.WarnLevel)
			srv := NewHTTPServer(config.ServerConfig{
				ListenAddress:     "127.0.0.1:0",
				TrustForwardedFor: tt.trust,
			}, &recordingProcessor{}, zap.New(obs))

			require.NoError(t, srv.Start())
			t.Cleanup(func() { _ = srv.Stop() })

			warnings := logs.FilterMessageSnippet("X-Forwarded-For").All()
			assert.Len(t, warnings, tt.warns)
		})
	}
}
