package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/core"
)

const messageMethodNotAllowed = "Method not allowed."

// ContactHandler serves the submission endpoint
type ContactHandler struct {
	processor         core.Processor
	logger            *zap.Logger
	maxBodyBytes      int64
	maxMemory         int64
	trustForwardedFor bool
}

// NewContactHandler creates a new contact handler
func NewContactHandler(processor core.Processor, logger *zap.Logger, maxBodyBytes, maxMemory int64, trustForwardedFor bool) *ContactHandler {
	return &ContactHandler{
		processor:         processor,
		logger:            logger,
		maxBodyBytes:      maxBodyBytes,
		maxMemory:         maxMemory,
		trustForwardedFor: trustForwardedFor,
	}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(w, http.StatusMethodNotAllowed, core.ResponseBody{Message: messageMethodNotAllowed})
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	form := &requestForm{r: r, maxMemory: h.maxMemory}
	defer form.cleanup()

	resp := h.processor.Process(r.Context(), &core.Request{
		Origin:    clientIP(r, h.trustForwardedFor),
		UserAgent: r.UserAgent(),
		RequestID: core.RequestIDFromContext(r.Context()),
		Form:      form,
	})
	h.writeJSON(w, resp.Status, resp.Body)
}

func (h *ContactHandler) writeJSON(w http.ResponseWriter, status int, body core.ResponseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}
