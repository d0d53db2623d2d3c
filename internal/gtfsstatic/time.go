package gtfsstatic

import (
	"fmt"
	"strings"
)

// ParseTimeToSeconds parses a GTFS "HH:MM:SS" time-of-day string into
// seconds since midnight. Hours may be 24 or greater for service that
// continues past midnight; that is not an error.
func ParseTimeToSeconds(timeStr string) (int, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %q", timeStr)
	}

	var hours, minutes, seconds int
	if _, err := fmt.Sscanf(parts[0], "%d", &hours); err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", timeStr, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minutes); err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", timeStr, err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &seconds); err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", timeStr, err)
	}

	return hours*3600 + minutes*60 + seconds, nil
}
