package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/weather-advisory-service/internal/advisory"
	"github.com/kjstillabower/weather-advisory-service/internal/client"
)

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort     string        `validate:"required,numeric"`
	RequestTimeout time.Duration `validate:"gt=0"`
	CORSOrigins    []string      `validate:"dive,required"`
	StaticDir      string

	GeocodingURL    string        `validate:"required,url"`
	ForecastURL     string        `validate:"required,url"`
	UpstreamTimeout time.Duration `validate:"gt=0"`
	DefaultTimezone string        `validate:"required,timezone"`

	BreakerEnabled          bool
	BreakerFailureThreshold uint32        `validate:"gte=1"`
	BreakerHalfOpenRequests uint32        `validate:"gte=1"`
	BreakerOpenTimeout      time.Duration `validate:"gt=0"`

	CityMaxLength int `validate:"gte=0"`

	ShutdownTimeout               time.Duration `validate:"gt=0"`
	ShutdownInFlightTimeout       time.Duration `validate:"gt=0"`
	ShutdownInFlightCheckInterval time.Duration `validate:"gt=0"`

	ReadinessWindow            time.Duration `validate:"gte=0"`
	ReadinessErrorThresholdPct int           `validate:"gte=0,lte=100"`

	TrackedCities []string
}

type fileConfig struct {
	Server struct {
		Port           string   `yaml:"port"`
		RequestTimeout string   `yaml:"request_timeout"`
		CORSOrigins    []string `yaml:"cors_origins"`
		StaticDir      string   `yaml:"static_dir"`
	} `yaml:"server"`

	OpenMeteo struct {
		GeocodingURL    string `yaml:"geocoding_url"`
		ForecastURL     string `yaml:"forecast_url"`
		Timeout         string `yaml:"timeout"`
		DefaultTimezone string `yaml:"default_timezone"`
		CircuitBreaker  struct {
			Enabled          bool   `yaml:"enabled"`
			FailureThreshold uint32 `yaml:"failure_threshold"`
			HalfOpenRequests uint32 `yaml:"half_open_requests"`
			OpenTimeout      string `yaml:"open_timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"open_meteo"`

	Validation struct {
		CityMaxLength *int `yaml:"city_max_length"`
	} `yaml:"validation"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Readiness struct {
		Window            string `yaml:"window"`
		ErrorThresholdPct *int   `yaml:"error_threshold_pct"`
	} `yaml:"readiness"`

	Metrics struct {
		TrackedCities []string `yaml:"tracked_cities"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads configuration relative to the working directory. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom loads root/.env (if present) and then root/config/{ENV_NAME}.yaml (ENV_NAME defaults to dev).
// Environment variables win over both files.
func LoadFrom(root string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(root, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "5001")
	cfg.CORSOrigins = fc.Server.CORSOrigins
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	cfg.StaticDir = firstNonEmpty(os.Getenv("STATIC_DIR"), fc.Server.StaticDir)

	cfg.GeocodingURL = firstNonEmpty(os.Getenv("GEOCODING_API_URL"), fc.OpenMeteo.GeocodingURL, client.DefaultGeocodingURL)
	cfg.ForecastURL = firstNonEmpty(os.Getenv("FORECAST_API_URL"), fc.OpenMeteo.ForecastURL, client.DefaultForecastURL)
	cfg.UpstreamTimeout = parseDuration(fc.OpenMeteo.Timeout, client.DefaultTimeout)
	cfg.DefaultTimezone = firstNonEmpty(os.Getenv("DEFAULT_TIMEZONE"), fc.OpenMeteo.DefaultTimezone, advisory.DefaultTimezone)
	// Two sequential upstream calls per lookup, plus headroom.
	cfg.RequestTimeout = parseDuration(fc.Server.RequestTimeout, 2*cfg.UpstreamTimeout+5*time.Second)

	cb := fc.OpenMeteo.CircuitBreaker
	cfg.BreakerEnabled = cb.Enabled
	cfg.BreakerFailureThreshold = cb.FailureThreshold
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	cfg.BreakerHalfOpenRequests = cb.HalfOpenRequests
	if cfg.BreakerHalfOpenRequests == 0 {
		cfg.BreakerHalfOpenRequests = 1
	}
	cfg.BreakerOpenTimeout = parseDuration(cb.OpenTimeout, 30*time.Second)

	cfg.CityMaxLength = 100
	if fc.Validation.CityMaxLength != nil {
		cfg.CityMaxLength = *fc.Validation.CityMaxLength
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 15*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.ReadinessWindow = parseDuration(fc.Readiness.Window, 60*time.Second)
	cfg.ReadinessErrorThresholdPct = 50
	if fc.Readiness.ErrorThresholdPct != nil {
		cfg.ReadinessErrorThresholdPct = *fc.Readiness.ErrorThresholdPct
	}

	cfg.TrackedCities = fc.Metrics.TrackedCities

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks struct tags, then adjusts RequestTimeout so it never undercuts a single upstream call.
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RequestTimeout <= c.UpstreamTimeout {
		c.RequestTimeout = c.UpstreamTimeout + time.Second
	}
	return nil
}

// parseDuration returns defaultVal for empty, unparsable or non-positive input.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
