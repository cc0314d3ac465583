// Package httphandler serves the read-only observability endpoints exposed
// while the now-playing watcher runs: token health, the last poll result, and
// Prometheus metrics. Token values never leave the process.
package httphandler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/application"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// Handler is the HTTP driving adapter.
type Handler struct {
	registry *application.ClientRegistry
	poller   *application.NowPlayingPoller
	metrics  http.Handler
	logger   zerolog.Logger
}

// NewHandler creates a Handler. poller and metrics may be nil; their routes
// are then not registered.
func NewHandler(
	registry *application.ClientRegistry,
	poller *application.NowPlayingPoller,
	metrics http.Handler,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		registry: registry,
		poller:   poller,
		metrics:  metrics,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	if h.poller != nil {
		mux.HandleFunc("GET /nowplaying", h.NowPlaying)
	}
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(h.logger, mux)
	wrapped = loggingMiddleware(h.logger, wrapped)

	return wrapped
}

// Health reports the token state of every registered service. Any service
// whose ledger cannot be read turns the response into 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Services: make(map[string]string),
	}
	status := http.StatusOK

	for _, svc := range h.registry.Services() {
		client, _ := h.registry.Get(svc)
		state, err := client.State(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Str("service", string(svc)).Msg("token state unreadable")
			resp.Services[string(svc)] = model.Category(err) + "_error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Services[string(svc)] = state.String()
	}

	writeJSON(w, status, resp)
}

// NowPlaying returns the poller's most recent result, or 204 before the
// first poll completes.
func (h *Handler) NowPlaying(w http.ResponseWriter, _ *http.Request) {
	update, ok := h.poller.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toNowPlayingResponse(update))
}
