package client

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/weather-advisory-service/internal/observability"
)

// BreakerConfig holds circuit breaker parameters for upstream calls.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	HalfOpenRequests uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state count reset period; 0 never resets
	OpenTimeout      time.Duration // time spent open before probing
}

// NewCircuitBreaker builds a gobreaker breaker that trips only on transport and
// upstream failures; "city not found" and decode errors leave it closed.
func NewCircuitBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "open_meteo"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	threshold := cfg.FailureThreshold
	observability.CircuitBreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !(errors.Is(err, ErrTransport) || errors.Is(err, ErrUpstreamFailure))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
			observability.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}
