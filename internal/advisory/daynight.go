package advisory

import (
	"strings"
	"time"
	_ "time/tzdata" // zone lookup must not depend on the host's zoneinfo
)

// DefaultTimezone is used when a timezone id is empty or unknown.
const DefaultTimezone = "Asia/Kolkata"

// Daytime is the half-open local hour range [DaytimeStartHour, DaytimeEndHour).
const (
	DaytimeStartHour = 6
	DaytimeEndHour   = 18
)

// naiveLayouts are the offset-less local layouts Open-Meteo emits for current_weather.time.
var naiveLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// LookupZone loads id, falling back to fallback when id is empty or unknown.
// Returns nil only when neither loads.
func LookupZone(id, fallback string) *time.Location {
	if loc := loadZone(id); loc != nil {
		return loc
	}
	return loadZone(fallback)
}

func loadZone(id string) *time.Location {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil
	}
	return loc
}

// ParseLocal parses timestamp in loc. Naive timestamps are read as wall-clock
// time in loc; timestamps carrying Z or an offset are converted into loc.
func ParseLocal(timestamp string, loc *time.Location) (time.Time, bool) {
	timestamp = strings.TrimSpace(timestamp)
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.In(loc), true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, timestamp, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDaytime reports whether timestamp falls in [06:00, 18:00) in timezoneID,
// using DefaultTimezone when timezoneID is empty or unknown.
func IsDaytime(timestamp, timezoneID string) bool {
	return IsDaytimeIn(timestamp, timezoneID, DefaultTimezone)
}

// IsDaytimeIn is IsDaytime with an explicit fallback zone. It fails open:
// an unparseable timestamp or an unloadable zone yields true.
func IsDaytimeIn(timestamp, timezoneID, fallback string) bool {
	loc := LookupZone(timezoneID, fallback)
	if loc == nil {
		return true
	}
	t, ok := ParseLocal(timestamp, loc)
	if !ok {
		return true
	}
	hour := t.Hour()
	return hour >= DaytimeStartHour && hour < DaytimeEndHour
}
