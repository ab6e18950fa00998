package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisory-service/internal/observability"
)

// RouterConfig holds the options NewRouter needs beyond the handler itself.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	StaticDir      string // empty disables the frontend routes
}

// NewRouter wires the API, metrics and optional static routes behind the
// correlation, metrics and CORS middleware.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	api.HandleFunc("/ready", h.GetReady).Methods(http.MethodGet)
	api.Handle("/weather", TimeoutMiddleware(cfg.RequestTimeout)(http.HandlerFunc(h.GetWeather))).Methods(http.MethodGet)

	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	if cfg.StaticDir != "" {
		router.PathPrefix("/").Handler(StaticHandler(cfg.StaticDir)).Methods(http.MethodGet, http.MethodHead)
	}

	return CORSMiddleware(cfg.CORSOrigins)(router)
}

// StaticHandler serves the frontend from dir; "/" resolves to dir/index.html.
func StaticHandler(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
