package youtube

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDuration parses an ISO-8601 duration such as "PT1H2M10S" or "P1DT3M".
// Years, months and weeks are not used by the Data API and are rejected.
func ParseDuration(s string) (time.Duration, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var total time.Duration
	inTime := false
	num := ""
	seen := false
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			inTime = true
			continue
		}

		if num == "" {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		num = ""

		var unit time.Duration
		switch {
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q: unsupported designator %q", s, r)
		}
		total += time.Duration(v * float64(unit))
		seen = true
	}

	if num != "" || !seen {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return total, nil
}
