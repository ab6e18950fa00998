// Command lookup resolves one city against Open-Meteo and prints the same JSON
// the /api/weather endpoint returns.
//
//	lookup -city Delhi
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisory-service/internal/config"
	"github.com/kjstillabower/weather-advisory-service/internal/observability"
	"github.com/kjstillabower/weather-advisory-service/internal/service"
	"github.com/kjstillabower/weather-advisory-service/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 on success, 1 on lookup failure, 2 on bad usage.
// Configuration comes from the same .env and config/{ENV_NAME}.yaml the service reads; flags override it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := fs.String("root", ".", "project root holding .env and config/")
	city := fs.String("city", "", "city name to look up (required)")
	geocodingURL := fs.String("geocoding-url", "", "Open-Meteo geocoding endpoint (default from config)")
	forecastURL := fs.String("forecast-url", "", "Open-Meteo forecast endpoint (default from config)")
	timezone := fs.String("timezone", "", "fallback IANA timezone (default from config)")
	timeout := fs.Duration("timeout", 0, "per-call upstream timeout (default from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadFrom(*root)
	if err != nil {
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return 1
	}
	if *geocodingURL != "" {
		cfg.GeocodingURL = *geocodingURL
	}
	if *forecastURL != "" {
		cfg.ForecastURL = *forecastURL
	}
	if *timezone != "" {
		cfg.DefaultTimezone = *timezone
	}
	if *timeout > 0 {
		cfg.UpstreamTimeout = *timeout
	}

	name, err := validation.ValidateCity(*city, cfg.CityMaxLength)
	if err != nil {
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return 1
	}

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = observability.FlushTelemetry(context.Background(), logger) }()

	c, err := cfg.NewWeatherClient()
	if err != nil {
		logger.Error("open-meteo client", zap.Error(err))
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return 1
	}

	ctx = observability.WithLogger(ctx, logger)
	ctx, cancel := context.WithTimeout(ctx, 2*cfg.UpstreamTimeout+5*time.Second)
	defer cancel()

	reading, err := service.NewResolver(c, cfg.DefaultTimezone).Resolve(ctx, name)
	if err != nil {
		var re *service.ResolveError
		if errors.As(err, &re) {
			logger.Debug("lookup failed", zap.String("kind", re.Kind.String()), zap.Error(re.Err))
		}
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return 1
	}
	writeJSON(stdout, reading)
	return 0
}

func writeJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
