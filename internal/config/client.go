package config

import "github.com/kjstillabower/weather-advisory-service/internal/client"

// NewWeatherClient builds the Open-Meteo client described by c, with the circuit breaker attached when enabled.
func (c *Config) NewWeatherClient() (*client.OpenMeteoClient, error) {
	wc, err := client.NewOpenMeteoClient(c.GeocodingURL, c.ForecastURL, c.UpstreamTimeout)
	if err != nil {
		return nil, err
	}
	if c.BreakerEnabled {
		wc.SetCircuitBreaker(client.NewCircuitBreaker(client.BreakerConfig{
			FailureThreshold: c.BreakerFailureThreshold,
			HalfOpenRequests: c.BreakerHalfOpenRequests,
			OpenTimeout:      c.BreakerOpenTimeout,
		}))
	}
	return wc, nil
}
