package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisory-service/internal/advisory"
	"github.com/kjstillabower/weather-advisory-service/internal/client"
	"github.com/kjstillabower/weather-advisory-service/internal/models"
	"github.com/kjstillabower/weather-advisory-service/internal/observability"
)

// Resolver turns a city name into a WeatherReading with an advisory.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	client          client.Client
	defaultTimezone string
}

// NewResolver returns a Resolver. An empty defaultTimezone uses advisory.DefaultTimezone.
func NewResolver(c client.Client, defaultTimezone string) *Resolver {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = advisory.DefaultTimezone
	}
	return &Resolver{
		client:          c,
		defaultTimezone: defaultTimezone,
	}
}

// Resolve geocodes city, fetches current conditions, and derives the advisory.
// Errors are always *ResolveError.
func (r *Resolver) Resolve(ctx context.Context, city string) (models.WeatherReading, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)
	observability.RecordWeatherQuery(city)

	place, err := r.client.Geocode(ctx, city)
	if err != nil {
		return models.WeatherReading{}, r.fail(logger, city, "geocode", err)
	}
	if place.Timezone == "" {
		place.Timezone = r.defaultTimezone
	}

	forecast, err := r.client.Forecast(ctx, place)
	if err != nil {
		return models.WeatherReading{}, r.fail(logger, city, "forecast", err)
	}

	precip := PrecipitationAt(forecast.HourlyTime, forecast.HourlyPrecipitationProbability, forecast.Time)
	isDaytime := advisory.IsDaytimeIn(forecast.Time, place.Timezone, r.defaultTimezone)
	rule := advisory.Classify(forecast.Temperature, forecast.WindSpeed, &precip)
	observability.RecordAdvisory(rule.String(), isDaytime)

	if logger != nil {
		logger.Debug("weather resolved",
			zap.String("city", city),
			zap.String("place", place.Name),
			zap.String("timezone", place.Timezone),
			zap.String("rule", rule.String()),
			zap.Bool("is_daytime", isDaytime),
			zap.Duration("duration", time.Since(start)))
	}

	return models.WeatherReading{
		Success:                  true,
		City:                     place.Name,
		Temperature:              forecast.Temperature,
		WindSpeed:                forecast.WindSpeed,
		WindDirection:            forecast.WindDirection,
		PrecipitationProbability: precip,
		Time:                     forecast.Time,
		Timezone:                 place.Timezone,
		IsDaytime:                isDaytime,
		Suggestion:               advisory.Text(rule, isDaytime),
	}, nil
}

func (r *Resolver) fail(logger *zap.Logger, city, step string, err error) error {
	re := &ResolveError{Kind: classify(err), City: city, Err: err}
	observability.ResolveErrorsTotal.WithLabelValues(re.Kind.String()).Inc()
	if logger != nil {
		logger.Debug("resolve failed",
			zap.String("city", city),
			zap.String("step", step),
			zap.String("kind", re.Kind.String()),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err))
	}
	return re
}

// classify maps a client error onto the closed ErrorKind set.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, client.ErrCityNotFound):
		return KindNotFound
	case errors.Is(err, client.ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindNetwork
	default:
		return KindInternal
	}
}

// PrecipitationAt returns the probability at the hourly index whose time equals at.
// Fractions round up, so the integer crosses the rain threshold exactly when the raw value does.
// Anything unavailable (missing series, unmatched time, short series, null entry) is 0.
func PrecipitationAt(times []string, probs []*float64, at string) int {
	for i, t := range times {
		if t != at {
			continue
		}
		if i >= len(probs) || probs[i] == nil {
			return 0
		}
		return int(math.Ceil(*probs[i]))
	}
	return 0
}
