package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/louisbranch/api-backend/internal/platform/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8000"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigFromUsesInjectedEnvironment(t *testing.T) {
	cfgRef := testConfig{}
	if err := ParseConfigFrom(&cfgRef, map[string]string{"CMD_TEST_MODE": "injected"}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfgRef.Address != "127.0.0.1:8000" || cfgRef.Mode != "injected" {
		t.Fatalf("unexpected config: %+v", cfgRef)
	}
}

func TestParseRejectsNilTargets(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected parse config to reject nil target")
	}
	if err := ParseConfigFrom[testConfig](nil, nil); err == nil {
		t.Fatal("expected parse config from to reject nil target")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	run := func(context.Context, *otel.Telemetry) error { return nil }
	if err := RunWithTelemetry(context.Background(), otel.Config{}, RunOptions{}, run); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), otel.Config{ServiceName: ServiceAPIBackend}, RunOptions{}, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
	if err := RunWithTelemetry(nil, otel.Config{ServiceName: ServiceAPIBackend}, RunOptions{}, run); err == nil {
		t.Fatal("expected missing context error")
	}
}

func TestRunWithTelemetryPassesTelemetryAndError(t *testing.T) {
	wantErr := errors.New("boom")
	var got *otel.Telemetry
	err := RunWithTelemetry(context.Background(), otel.Config{ServiceName: ServiceAPIBackend}, RunOptions{}, func(_ context.Context, tel *otel.Telemetry) error {
		got = tel
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected run error, got %v", err)
	}
	if got == nil {
		t.Fatal("expected telemetry to be passed to run")
	}
	if got.Enabled() {
		t.Fatal("expected disabled telemetry without endpoint")
	}
}

func TestRunWithTelemetryFlushesOnReturn(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	var flushed int
	err := RunWithTelemetry(context.Background(), otel.Config{
		ServiceName: ServiceAPIBackend,
		Enabled:     true,
		Exporter:    exporter,
	}, RunOptions{}, func(ctx context.Context, tel *otel.Telemetry) error {
		_, span := tel.TracerProvider().Tracer("test").Start(ctx, "work")
		span.End()
		if err := tel.ForceFlush(ctx); err != nil {
			return err
		}
		flushed = len(exporter.GetSpans())
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if flushed != 1 {
		t.Fatalf("expected 1 exported span, got %d", flushed)
	}
}
