// Package server exposes tree building, patch splitting and commit views over
// a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/store"
	"github.com/talenthium/patchtree/internal/tracing"
)

// DiffSource fetches commit diffs from the project service.
type DiffSource interface {
	CommitDiff(ctx context.Context, projectID, hash string) (*patch.CommitDiff, error)
}

// SnapshotStore persists commit diffs for offline viewing.
type SnapshotStore interface {
	Save(ctx context.Context, s store.Snapshot) (string, error)
	FindByID(ctx context.Context, id string) (*store.Snapshot, error)
	List(ctx context.Context, filter store.ListFilter) ([]store.SnapshotInfo, error)
	Delete(ctx context.Context, id string) error
}

// Config holds the collaborators and listen options for the server.
type Config struct {
	// Addr is the host:port to listen on. Port 0 picks a free port.
	Addr string
	// Diffs may be nil, in which case commit views return 503.
	Diffs DiffSource
	// Snapshots may be nil, in which case snapshot routes return 503.
	Snapshots SnapshotStore
	Tracer    trace.Tracer

	ReadTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// NewHandler builds the gin engine without binding a listener.
func NewHandler(cfg Config) http.Handler {
	return newEngine(&handler{diffs: cfg.Diffs, snapshots: cfg.Snapshots, tracer: cfg.Tracer})
}

func newEngine(h *handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), tracing.GinMiddleware(h.tracer))
	h.routes(r)
	return r
}

// New listens on cfg.Addr and prepares the server. Call Start to serve.
func New(cfg Config) (*Server, error) {
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	return &Server{
		listener: listener,
		server: &http.Server{
			Handler:           NewHandler(cfg),
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	log.Info(log.CatServer, "Starting API server", "addr", s.Addr())
	if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info(log.CatServer, "Stopping API server")
	return s.server.Shutdown(ctx)
}

// Addr returns the address actually bound, which differs from the configured
// one when port 0 was requested.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// requestLogger logs one line per request in the server category.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug(log.CatServer, "Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond))
	}
}
