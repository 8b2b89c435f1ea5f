// Package apibackend parses api-backend command configuration and launches
// the service.
package apibackend

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/api-backend/internal/platform/cmd"
	"github.com/louisbranch/api-backend/internal/platform/logging"
	"github.com/louisbranch/api-backend/internal/platform/otel"
	server "github.com/louisbranch/api-backend/internal/services/apibackend/app"
	"go.uber.org/zap"
)

// Config holds api-backend command configuration.
type Config struct {
	HTTPAddr     string `env:"API_BACKEND_HTTP_ADDR"       envDefault:"127.0.0.1:8000"`
	Version      string `env:"API_VERSION"                 envDefault:"dev"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"http://localhost:4318/v1/traces"`
	OTelEnabled  bool   `env:"API_BACKEND_OTEL_ENABLED"    envDefault:"true"`
	LogDir       string `env:"API_BACKEND_LOG_DIR"`
	LogLevel     string `env:"API_BACKEND_LOG_LEVEL"       envDefault:"info"`
}

// ParseConfig parses the process environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return parseFlags(cfg, fs, args)
}

// ParseConfigFrom parses environ and flags into a Config without reading
// the process environment.
func ParseConfigFrom(environ map[string]string, fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfigFrom(&cfg, environ); err != nil {
		return Config{}, err
	}
	return parseFlags(cfg, fs, args)
}

func parseFlags(cfg Config, fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, fmt.Errorf("flag parser is required")
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "api-backend HTTP listen address")
	fs.StringVar(&cfg.Version, "api-version", cfg.Version, "version reported by /version")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP traces endpoint URL")
	fs.BoolVar(&cfg.OTelEnabled, "otel-enabled", cfg.OTelEnabled, "export traces to the OTLP endpoint")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory of the api-backend.log file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "minimum log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = logging.DefaultDir()
	}
	return cfg, nil
}

// Run builds the logger and tracing pipeline and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Config{
		ServiceName: entrypoint.ServiceAPIBackend,
		Dir:         cfg.LogDir,
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()

	err = entrypoint.RunWithTelemetry(ctx, otel.Config{
		ServiceName:    entrypoint.ServiceAPIBackend,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
		Logger:         logger.Logger,
	}, entrypoint.RunOptions{Logger: logger.Logger}, func(ctx context.Context, tel *otel.Telemetry) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:       cfg.HTTPAddr,
			Version:        cfg.Version,
			Logger:         logger.Logger,
			TracerProvider: tel.TracerProvider(),
			Propagator:     tel.Propagator(),
		})
	})
	if err != nil {
		logger.Error("api-backend stopped", zap.Error(err))
		return err
	}
	logger.Info("api-backend stopped")
	return nil
}
