// Package api exposes the HTTP surface of the service: query answering,
// course analytics and health.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
)

// QueryService is the application surface the handlers call.
type QueryService interface {
	Query(ctx context.Context, query, sessionID string) (string, []course.Source, error)
	CourseAnalytics(ctx context.Context) (rag.Analytics, error)
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	Service     QueryService // Required
	CORSOrigins []string     // Allowed origins; "*" allows any
}

// Server is the JSON API HTTP server.
type Server struct {
	mux http.Handler
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("query service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	qh := &queryHandler{service: cfg.Service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", qh.query)
	mux.HandleFunc("GET /api/courses", qh.courses)
	mux.HandleFunc("GET /api/health", health)

	// Middleware stack (outermost first): Recovery → Logging → CORS → Routes
	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	return &Server{mux: handler}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
