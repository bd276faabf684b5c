package helpers

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DateLayout is the calendar-date format used by opportunity start and end dates
const DateLayout = "2006-01-02"

// ParseDuration parses a duration string, returning defaultDuration on error
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date. An empty
// string yields the zero time and no error so the caller can report it as
// a missing field.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
