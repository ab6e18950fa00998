package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCityEmpty is returned when the city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("City name is required")

// ErrCityTooLong is returned when the city exceeds the configured rune count.
var ErrCityTooLong = errors.New("City name is too long")

// ErrCityInvalidChars is returned when the city contains control characters.
var ErrCityInvalidChars = errors.New("City name contains invalid characters")

// ValidateCity trims the input and enforces maxLen (in runes, ignored when <= 0).
// Any printable text is accepted since geocoding handles punctuation and scripts itself.
func ValidateCity(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrCityEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if unicode.IsControl(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}
