package server

import (
	"net/http"

	"github.com/louisbranch/api-backend/internal/platform/httpx"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultVersion is reported by /version when no version is configured.
const DefaultVersion = "dev"

// HandlerOptions holds the process-wide dependencies of the HTTP surface.
type HandlerOptions struct {
	Logger         *zap.Logger
	Version        string
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
	CORS           httpx.CORSPolicy
}

type healthResponse struct {
	Status string `json:"status"`
}

type versionResponse struct {
	Version string `json:"version"`
}

type handlers struct {
	logger  *zap.Logger
	version string
}

// NewHandler builds the routes wrapped in recovery, CORS and tracing, in
// that order.
func NewHandler(opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	h := handlers{logger: logger, version: version}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /version", h.versionInfo)

	return httpx.Chain(mux,
		httpx.RecoverPanic(logger),
		httpx.CORS(opts.CORS),
		httpx.Trace(opts.TracerProvider, opts.Propagator),
	)
}

func (h handlers) health(w http.ResponseWriter, _ *http.Request) {
	h.logger.Info("/health called")
	h.writeJSON(w, healthResponse{Status: "ok"})
}

func (h handlers) versionInfo(w http.ResponseWriter, _ *http.Request) {
	h.logger.Info("/version called", zap.String("version", h.version))
	h.writeJSON(w, versionResponse{Version: h.version})
}

func (h handlers) writeJSON(w http.ResponseWriter, payload any) {
	if err := httpx.WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}
