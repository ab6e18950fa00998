package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/weather-advisory-service/internal/models"
	"github.com/kjstillabower/weather-advisory-service/internal/observability"
)

// Client resolves a city to a place and fetches current conditions for it.
type Client interface {
	Geocode(ctx context.Context, name string) (models.Place, error)
	Forecast(ctx context.Context, place models.Place) (models.Forecast, error)
}

var (
	ErrCityNotFound    = errors.New("city not found")
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrTransport covers dial errors, timeouts and an open circuit: the call never got an answer.
	ErrTransport         = errors.New("transport failure")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout      = 10 * time.Second

	endpointGeocoding = "geocoding"
	endpointForecast  = "forecast"
)

// OpenMeteoClient calls the Open-Meteo geocoding and forecast APIs.
// Each call gets its own timeout; nothing is retried.
type OpenMeteoClient struct {
	geocodingURL string
	forecastURL  string
	timeout      time.Duration
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient validates both base URLs. A non-positive timeout uses DefaultTimeout.
func NewOpenMeteoClient(geocodingURL, forecastURL string, timeout time.Duration) (*OpenMeteoClient, error) {
	for _, raw := range []string{geocodingURL, forecastURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid API URL %q: scheme and host required", raw)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenMeteoClient{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		timeout:      timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker routes every upstream call through cb. Pass nil to disable.
func (c *OpenMeteoClient) SetCircuitBreaker(cb *gobreaker.CircuitBreaker) {
	c.breaker = cb
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
	Hourly *struct {
		Time                     []string   `json:"time"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

// errorResponse is the body Open-Meteo returns with 4xx responses.
type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Geocode returns the first match for name, or ErrCityNotFound.
func (c *OpenMeteoClient) Geocode(ctx context.Context, name string) (models.Place, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")

	var resp geocodingResponse
	if err := c.getJSON(ctx, endpointGeocoding, c.geocodingURL, params, &resp); err != nil {
		return models.Place{}, err
	}
	if len(resp.Results) == 0 {
		return models.Place{}, fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}
	first := resp.Results[0]
	return models.Place{
		Name:      first.Name,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
		Timezone:  first.Timezone,
	}, nil
}

// Forecast fetches current_weather and the hourly precipitation probability series,
// with times expressed in place.Timezone.
func (c *OpenMeteoClient) Forecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	params.Set("current_weather", "true")
	params.Set("hourly", "precipitation_probability")
	params.Set("timezone", place.Timezone)

	var resp forecastResponse
	if err := c.getJSON(ctx, endpointForecast, c.forecastURL, params, &resp); err != nil {
		return models.Forecast{}, err
	}
	if resp.CurrentWeather == nil {
		return models.Forecast{}, fmt.Errorf("%w: forecast: missing current_weather", ErrMalformedResponse)
	}
	f := models.Forecast{
		Temperature:   resp.CurrentWeather.Temperature,
		WindSpeed:     resp.CurrentWeather.WindSpeed,
		WindDirection: resp.CurrentWeather.WindDirection,
		Time:          resp.CurrentWeather.Time,
	}
	if resp.Hourly != nil {
		f.HourlyTime = resp.Hourly.Time
		f.HourlyPrecipitationProbability = resp.Hourly.PrecipitationProbability
	}
	return f, nil
}

// getJSON performs one GET, through the circuit breaker when configured, and decodes into out.
func (c *OpenMeteoClient) getJSON(ctx context.Context, endpoint, baseURL string, params url.Values, out interface{}) error {
	var err error
	if c.breaker == nil {
		err = c.call(ctx, endpoint, baseURL, params, out)
	} else {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, c.call(ctx, endpoint, baseURL, params, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			observability.UpstreamCallsTotal.WithLabelValues(endpoint, "circuit_open").Inc()
			err = fmt.Errorf("%w: %w", ErrTransport, ErrCircuitOpen)
		}
	}
	if err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(endpoint, string(CategorizeError(err))).Inc()
	}
	return err
}

func (c *OpenMeteoClient) call(ctx context.Context, endpoint, baseURL string, params url.Values, out interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, baseURL, params)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%w: %s request: %w", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.UpstreamDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrTransport, endpoint, err)
	}

	if err := handleErrorResponse(resp.StatusCode, body); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parse %s response: %w", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, baseURL string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

// upstreamStatus is a non-2xx answer. It unwraps to ErrUpstreamFailure.
type upstreamStatus struct {
	code   int
	reason string
}

func (e *upstreamStatus) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("%v: HTTP %d: %s", ErrUpstreamFailure, e.code, e.reason)
	}
	return fmt.Sprintf("%v: HTTP %d", ErrUpstreamFailure, e.code)
}

func (e *upstreamStatus) Unwrap() error { return ErrUpstreamFailure }

func handleErrorResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	return &upstreamStatus{code: statusCode, reason: er.Reason}
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
