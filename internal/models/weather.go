package models

// Place is the first geocoding match for a city name.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"` // IANA id; empty when upstream omits it
}

// Forecast holds the current conditions and hourly precipitation series for a place.
type Forecast struct {
	Temperature   float64 // °C
	WindSpeed     float64 // km/h
	WindDirection float64 // degrees
	Time          string  // naive local ISO-8601, e.g. 2024-01-01T15:00

	HourlyTime                     []string
	HourlyPrecipitationProbability []*float64 // entries may be null upstream
}

// WeatherReading is the response body for a resolved city.
type WeatherReading struct {
	Success                  bool    `json:"success"`
	City                     string  `json:"city"`
	Temperature              float64 `json:"temperature"`
	WindSpeed                float64 `json:"wind_speed"`
	WindDirection            float64 `json:"wind_direction"`
	PrecipitationProbability int     `json:"precipitation_probability"`
	Time                     string  `json:"time"`
	Timezone                 string  `json:"timezone"`
	IsDaytime                bool    `json:"is_daytime"`
	Suggestion               string  `json:"suggestion"`
}
