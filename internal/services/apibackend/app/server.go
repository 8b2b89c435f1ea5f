// Package server hosts the api-backend HTTP process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/api-backend/internal/platform/httpx"
	"github.com/louisbranch/api-backend/internal/platform/timeouts"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config defines the inputs for the api-backend HTTP server.
type Config struct {
	HTTPAddr          string
	Version           string
	Logger            *zap.Logger
	TracerProvider    trace.TracerProvider
	Propagator        propagation.TextMapPropagator
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server owns the HTTP listener of the api-backend process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	logger          *zap.Logger
}

// NewServer builds a configured server; it does not bind the address.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewHandler(HandlerOptions{
		Logger:         logger,
		Version:        config.Version,
		TracerProvider: config.TracerProvider,
		Propagator:     config.Propagator,
		CORS:           httpx.PermissiveCORS,
	})
	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          logger,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
	}, nil
}

// Run creates and serves an api-backend server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init api-backend server: %w", err)
	}
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve api-backend: %w", err)
	}
	return nil
}

// ListenAndServe binds the address and serves until the context ends, then
// shuts down gracefully. A bind failure is returned before serving starts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("api-backend server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	ln, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s == nil {
		return errors.New("api-backend server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if ln == nil {
		return errors.New("listener is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Info("api-backend listening", zap.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
