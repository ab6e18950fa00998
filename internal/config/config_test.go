package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

const minimalEnvYAML = `
server:
  port: "8080"
open_meteo:
  timeout: 4s
`

// clearEnv blanks every override Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "PORT", "GEOCODING_API_URL", "FORECAST_API_URL", "DEFAULT_TIMEZONE", "STATIC_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, dir, env, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, env+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "{}\n")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"ServerPort", cfg.ServerPort, "5001"},
		{"GeocodingURL", cfg.GeocodingURL, "https://geocoding-api.open-meteo.com/v1/search"},
		{"ForecastURL", cfg.ForecastURL, "https://api.open-meteo.com/v1/forecast"},
		{"UpstreamTimeout", cfg.UpstreamTimeout, 10 * time.Second},
		{"RequestTimeout", cfg.RequestTimeout, 25 * time.Second},
		{"DefaultTimezone", cfg.DefaultTimezone, "Asia/Kolkata"},
		{"CityMaxLength", cfg.CityMaxLength, 100},
		{"BreakerEnabled", cfg.BreakerEnabled, false},
		{"BreakerFailureThreshold", cfg.BreakerFailureThreshold, uint32(5)},
		{"BreakerOpenTimeout", cfg.BreakerOpenTimeout, 30 * time.Second},
		{"ReadinessWindow", cfg.ReadinessWindow, time.Minute},
		{"ReadinessErrorThresholdPct", cfg.ReadinessErrorThresholdPct, 50},
		{"ShutdownInFlightCheckInterval", cfg.ShutdownInFlightCheckInterval, 100 * time.Millisecond},
		{"StaticDir", cfg.StaticDir, ""},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestLoadFrom_FileValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", `
server:
  port: "9090"
  request_timeout: 12s
  cors_origins: ["https://weather.example.com"]
  static_dir: ./frontend
open_meteo:
  geocoding_url: http://localhost:8081/v1/search
  forecast_url: http://localhost:8081/v1/forecast
  timeout: 3s
  default_timezone: Europe/London
  circuit_breaker:
    enabled: true
    failure_threshold: 3
    half_open_requests: 2
    open_timeout: 45s
validation:
  city_max_length: 0
readiness:
  window: 2m
  error_threshold_pct: 0
metrics:
  tracked_cities: [Delhi, London]
`)

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerPort != "9090" || cfg.RequestTimeout != 12*time.Second || cfg.StaticDir != "./frontend" {
		t.Errorf("server = %q %v %q", cfg.ServerPort, cfg.RequestTimeout, cfg.StaticDir)
	}
	if cfg.GeocodingURL != "http://localhost:8081/v1/search" || cfg.UpstreamTimeout != 3*time.Second {
		t.Errorf("open_meteo = %q %v", cfg.GeocodingURL, cfg.UpstreamTimeout)
	}
	if cfg.DefaultTimezone != "Europe/London" {
		t.Errorf("DefaultTimezone = %q", cfg.DefaultTimezone)
	}
	if !cfg.BreakerEnabled || cfg.BreakerFailureThreshold != 3 || cfg.BreakerHalfOpenRequests != 2 || cfg.BreakerOpenTimeout != 45*time.Second {
		t.Errorf("breaker = %v %d %d %v", cfg.BreakerEnabled, cfg.BreakerFailureThreshold, cfg.BreakerHalfOpenRequests, cfg.BreakerOpenTimeout)
	}
	// Explicit zeros are kept: they disable the length check and the readiness error check.
	if cfg.CityMaxLength != 0 || cfg.ReadinessErrorThresholdPct != 0 {
		t.Errorf("CityMaxLength = %d, ReadinessErrorThresholdPct = %d, want 0/0", cfg.CityMaxLength, cfg.ReadinessErrorThresholdPct)
	}
	if cfg.ReadinessWindow != 2*time.Minute {
		t.Errorf("ReadinessWindow = %v", cfg.ReadinessWindow)
	}
	if strings.Join(cfg.TrackedCities, ",") != "Delhi,London" {
		t.Errorf("TrackedCities = %v", cfg.TrackedCities)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", minimalEnvYAML)
	t.Setenv("PORT", "7000")
	t.Setenv("GEOCODING_API_URL", "http://geo.internal/v1/search")
	t.Setenv("FORECAST_API_URL", "http://fc.internal/v1/forecast")
	t.Setenv("DEFAULT_TIMEZONE", "America/New_York")
	t.Setenv("STATIC_DIR", "/srv/www")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerPort != "7000" {
		t.Errorf("ServerPort = %q, want env override", cfg.ServerPort)
	}
	if cfg.GeocodingURL != "http://geo.internal/v1/search" || cfg.ForecastURL != "http://fc.internal/v1/forecast" {
		t.Errorf("URLs = %q %q", cfg.GeocodingURL, cfg.ForecastURL)
	}
	if cfg.DefaultTimezone != "America/New_York" || cfg.StaticDir != "/srv/www" {
		t.Errorf("DefaultTimezone = %q, StaticDir = %q", cfg.DefaultTimezone, cfg.StaticDir)
	}
}

func TestLoadFrom_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "staging", "server:\n  port: \"8181\"\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ENV_NAME=staging\nDEFAULT_TIMEZONE=Asia/Tokyo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerPort != "8181" {
		t.Errorf("ServerPort = %q, want staging file value", cfg.ServerPort)
	}
	if cfg.DefaultTimezone != "Asia/Tokyo" {
		t.Errorf("DefaultTimezone = %q, want value from .env", cfg.DefaultTimezone)
	}
}

func TestLoadFrom_EnvFileNotFound(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV_NAME", "nonexistent")

	_, err := LoadFrom(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("LoadFrom() error = %v, want config file not found", err)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "server: [unclosed\n")

	_, err := LoadFrom(dir)
	if err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("LoadFrom() error = %v, want parse error", err)
	}
}

func TestLoadFrom_BadDurationsFallBack(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", `
open_meteo:
  timeout: not-a-duration
shutdown:
  timeout: -5s
`)

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Errorf("UpstreamTimeout = %v, want default", cfg.UpstreamTimeout)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default", cfg.ShutdownTimeout)
	}
}

func TestLoadFrom_RequestTimeoutNeverBelowUpstream(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", `
server:
  request_timeout: 2s
open_meteo:
  timeout: 5s
`)

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.RequestTimeout != 6*time.Second {
		t.Errorf("RequestTimeout = %v, want 6s", cfg.RequestTimeout)
	}
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{"bad url", "open_meteo:\n  geocoding_url: not a url\n", "GeocodingURL"},
		{"bad timezone", "open_meteo:\n  default_timezone: Mars/Olympus\n", "DefaultTimezone"},
		{"bad port", "server:\n  port: eighty\n", "ServerPort"},
		{"threshold over 100", "readiness:\n  error_threshold_pct: 150\n", "ReadinessErrorThresholdPct"},
		{"negative city length", "validation:\n  city_max_length: -1\n", "CityMaxLength"},
		{"empty cors origin", "server:\n  cors_origins: [\"\"]\n", "CORSOrigins[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeEnvFile(t, dir, "dev", tt.yaml)

			cfg, err := LoadFrom(dir)
			if err == nil {
				t.Fatalf("LoadFrom() = %+v, want validation error", cfg)
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want validator.ValidationErrors", err)
			}
			found := false
			for _, fe := range verrs {
				if fe.Field() == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("validation errors %v do not mention %s", verrs, tt.wantField)
			}
		})
	}
}

func TestLoad_ProjectDevConfig(t *testing.T) {
	clearEnv(t)
	root := findProjectRoot(t)
	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom(%s) error = %v", root, err)
	}
	if cfg.DefaultTimezone != "Asia/Kolkata" {
		t.Errorf("dev DefaultTimezone = %q", cfg.DefaultTimezone)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
