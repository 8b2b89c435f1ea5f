// Package cmd holds the startup plumbing shared by service commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/louisbranch/api-backend/internal/platform/config"
	"github.com/louisbranch/api-backend/internal/platform/otel"
	"github.com/louisbranch/api-backend/internal/platform/timeouts"
	"go.uber.org/zap"
)

// ServiceAPIBackend names the api-backend service in logs, spans and files.
const ServiceAPIBackend = "api-backend"

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
	// Logger receives startup and shutdown diagnostics.
	Logger *zap.Logger
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseConfigFrom loads defaults from environ instead of the process
// environment.
func ParseConfigFrom[T any](cfg *T, environ map[string]string) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnvMap(cfg, environ)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing, executes run with it, and flushes
// pending spans once run returns.
func RunWithTelemetry(ctx context.Context, telemetry otel.Config, options RunOptions, run func(context.Context, *otel.Telemetry) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(telemetry.ServiceName) == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if telemetry.Logger == nil {
		telemetry.Logger = logger
	}

	tel, err := otel.Setup(ctx, telemetry)
	if err != nil {
		return err
	}
	if tel.Enabled() {
		logger.Info("tracing enabled", zap.String("endpoint", telemetry.Endpoint))
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = timeouts.TelemetryShutdown
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.String("service", telemetry.ServiceName), zap.Error(err))
		}
	}()
	return run(ctx, tel)
}
