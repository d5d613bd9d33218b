package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/config"
	"github.com/mikey/contact-intake/internal/core"
)

const (
	contactAPIPath  = "/contact/api"
	contactPagePath = "/contact"
	staticPrefix    = "/static/"
)

//go:embed static
var staticFiles embed.FS

// HTTPServer serves the contact form, its API, health and metrics
type HTTPServer struct {
	cfg    config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewHTTPServer creates a new HTTP server for the processor
func NewHTTPServer(cfg config.ServerConfig, processor core.Processor, logger *zap.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:    cfg,
		logger: logger.Named("http"),
	}
	s.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.routes(processor),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root handler, with middleware applied
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) routes(processor core.Processor) http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The embedded directory is fixed at build time
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle(contactAPIPath, NewContactHandler(processor, s.logger, s.cfg.MaxBodyBytes, s.cfg.MaxMemory, s.cfg.TrustForwardedFor))
	mux.HandleFunc("GET "+contactPagePath, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "contact.html")
	})
	mux.Handle("GET "+staticPrefix, http.StripPrefix(staticPrefix, http.FileServerFS(static)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, contactPagePath, http.StatusFound)
	})

	return RequestID(AccessLog(s.logger)(SecurityHeaders(mux)))
}

// Start starts listening in the background
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	s.logger.Info("HTTP server starting", zap.String("address", ln.Addr().String()))
	if s.cfg.TrustForwardedFor {
		s.logger.Warn("Rate limiting keys on X-Forwarded-For; run behind a proxy that overwrites it or set server.trust_forwarded_for to false",
			zap.String("address", ln.Addr().String()))
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop waits for in-flight requests up to the shutdown timeout
func (s *HTTPServer) Stop() error {
	ctx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.server.Shutdown(ctx)
}
