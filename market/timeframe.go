package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// ParseTimeframe accepts the rule strings used by bar files and the CLI:
// pandas style ("15T", "5min", "1H", "4h", "1D") and broker style
// ("M15", "H1", "H4", "D1").
func ParseTimeframe(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadTimeframe)
	}

	// broker style: unit letter first
	if len(s) > 1 && isUnit(s[:1]) && isDigits(s[1:]) {
		s = s[1:] + s[:1]
	}

	lower := strings.ToLower(s)
	var unit time.Duration
	var num string
	switch {
	case strings.HasSuffix(lower, "min"):
		unit, num = time.Minute, lower[:len(lower)-3]
	case strings.HasSuffix(lower, "t"), strings.HasSuffix(lower, "m"):
		unit, num = time.Minute, lower[:len(lower)-1]
	case strings.HasSuffix(lower, "h"):
		unit, num = time.Hour, lower[:len(lower)-1]
	case strings.HasSuffix(lower, "d"):
		unit, num = day, lower[:len(lower)-1]
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadTimeframe, s)
	}

	if num == "" {
		num = "1"
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeframe, s)
	}
	return time.Duration(n) * unit, nil
}

// TimeframeString formats a bar interval the way bar directories are named.
func TimeframeString(tf time.Duration) (string, error) {
	switch {
	case tf <= 0:
		return "", fmt.Errorf("%w: %s", ErrBadTimeframe, tf)
	case tf%day == 0:
		return fmt.Sprintf("%dD", tf/day), nil
	case tf%time.Hour == 0:
		return fmt.Sprintf("%dH", tf/time.Hour), nil
	case tf%time.Minute == 0:
		return fmt.Sprintf("%dT", tf/time.Minute), nil
	}
	return "", fmt.Errorf("%w: cannot map %s", ErrBadTimeframe, tf)
}

// BarsPerYear is the number of bars of length tf in a 365 day year.
// Hourly bars give 24*365, daily bars 365.
func BarsPerYear(tf time.Duration) float64 {
	if tf <= 0 {
		return 0
	}
	return float64(365*day) / float64(tf)
}

func isUnit(s string) bool {
	switch s {
	case "M", "H", "D":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
