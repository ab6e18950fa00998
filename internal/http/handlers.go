package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisory-service/internal/lifecycle"
	"github.com/kjstillabower/weather-advisory-service/internal/observability"
	"github.com/kjstillabower/weather-advisory-service/internal/service"
	"github.com/kjstillabower/weather-advisory-service/internal/traffic"
	"github.com/kjstillabower/weather-advisory-service/internal/validation"
)

// ReadinessConfig holds the error-rate window used by GetReady.
// A zero Window or ErrorThresholdPct disables the error-rate check.
type ReadinessConfig struct {
	Window            time.Duration
	ErrorThresholdPct int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolver   *service.Resolver
	logger     *zap.Logger
	maxCityLen int
	readiness  ReadinessConfig

	readyMu   sync.Mutex
	readyPrev string
}

// NewHandler returns a new Handler. maxCityLen <= 0 disables the length check.
func NewHandler(resolver *service.Resolver, logger *zap.Logger, maxCityLen int, readiness ReadinessConfig) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		resolver:   resolver,
		logger:     logger,
		maxCityLen: maxCityLen,
		readiness:  readiness,
	}
}

// GetWeather handles GET /api/weather?city=<name>.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(r.URL.Query().Get("city"), h.maxCityLen)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading, err := h.resolver.Resolve(r.Context(), city)
	if err != nil {
		kind := service.KindOf(err)
		// An unknown city is a well-formed answer, not a service fault.
		if kind == service.KindNotFound {
			traffic.RecordSuccess()
		} else {
			traffic.RecordError()
			h.requestLogger(r).Warn("weather lookup failed",
				zap.String("city", city),
				zap.String("kind", kind.String()),
				zap.Error(err))
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, reading)
}

// GetHealth handles GET /api/health. It reports process liveness only.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Weather API is running",
	})
}

// GetReady handles GET /api/ready.
// Order: shutting-down > degraded (error rate at or above threshold) > ready.
func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	status, code, reason := "ready", http.StatusOK, ""
	errCount, total := 0, 0
	if h.readiness.Window > 0 {
		errCount, total = traffic.ErrorRate(h.readiness.Window)
	}
	switch {
	case lifecycle.IsShuttingDown():
		status, code, reason = "shutting-down", http.StatusServiceUnavailable, "signal"
	case traffic.Breached(h.readiness.Window, h.readiness.ErrorThresholdPct):
		status, code, reason = "degraded", http.StatusServiceUnavailable, "error_rate_breach"
	}

	h.readyMu.Lock()
	if h.readyPrev != "" && h.readyPrev != status {
		h.logger.Info("readiness transition",
			zap.String("previous_status", h.readyPrev),
			zap.String("current_status", status),
			zap.String("reason", reason))
	}
	h.readyPrev = status
	h.readyMu.Unlock()

	resp := map[string]interface{}{
		"status":             status,
		"errors_in_window":   errCount,
		"requests_in_window": total,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}
	if d := lifecycle.DrainingFor(); d > 0 {
		resp["draining_for"] = d.Round(time.Millisecond).String()
	}
	writeJSON(w, code, resp)
}

func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if logger := observability.LoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return h.logger
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the flat {"error": message} body every failure uses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
