package shared

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate reads a calendar date. YYYY-MM-DD is canonical; an RFC3339
// timestamp is reduced to the date in its own offset. The result is UTC
// midnight so it compares cleanly with stored leave dates.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}
