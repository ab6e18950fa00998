//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-advisory-service/internal/client"
	"github.com/kjstillabower/weather-advisory-service/internal/service"
)

// IntegrationTestConfig points integration tests at a live (or self-hosted) Open-Meteo.
type IntegrationTestConfig struct {
	GeocodingURL string
	ForecastURL  string
	Timeout      time.Duration
}

// GetIntegrationConfig reads endpoints from the environment.
// Skips the test unless OPEN_METEO_LIVE=1, since the public API is rate limited.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("OPEN_METEO_LIVE") != "1" {
		t.Skip("OPEN_METEO_LIVE not set, skipping integration test")
	}
	cfg := IntegrationTestConfig{
		GeocodingURL: os.Getenv("GEOCODING_API_URL"),
		ForecastURL:  os.Getenv("FORECAST_API_URL"),
		Timeout:      client.DefaultTimeout,
	}
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = client.DefaultGeocodingURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = client.DefaultForecastURL
	}
	return cfg
}

// SetupIntegrationClient returns a client for the configured endpoints.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenMeteoClient {
	t.Helper()
	c, err := client.NewOpenMeteoClient(cfg.GeocodingURL, cfg.ForecastURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}

// SetupIntegrationResolver returns a resolver backed by the live client.
func SetupIntegrationResolver(t *testing.T, cfg IntegrationTestConfig) *service.Resolver {
	t.Helper()
	return service.NewResolver(SetupIntegrationClient(t, cfg), "")
}
