package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDataRate is returned for a data rate that cannot be parsed.
var ErrInvalidDataRate = errors.New("invalid data rate")

var rateUnits = map[string]float64{
	"bps": 1, "b/s": 1,
	"Bps": 8, "B/s": 8,
}

var ratePrefixes = map[string]float64{
	"":   1,
	"k":  1e3,
	"K":  1e3,
	"M":  1e6,
	"G":  1e9,
	"Ki": 1024,
	"Mi": 1024 * 1024,
	"Gi": 1024 * 1024 * 1024,
}

// ParseDataRate converts a rate such as "100Mbps", "5.5Mb/s", "1MB/s" or
// "64KiBps" into bits per second. A bare number is taken as bits per second.
func ParseDataRate(s string) (float64, error) {
	s = strings.TrimSpace(s)

	split := len(s)
	for i, c := range s {
		if (c >= '0' && c <= '9') || c == '.' {
			continue
		}

		if (c == 'e' || c == 'E') && i+1 < len(s) &&
			(s[i+1] == '+' || s[i+1] == '-' || (s[i+1] >= '0' && s[i+1] <= '9')) {
			continue
		}

		if (c == '+' || c == '-') && i > 0 && (s[i-1] == 'e' || s[i-1] == 'E') {
			continue
		}

		split = i

		break
	}

	value, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, s)
	}

	multiplier, err := rateMultiplier(s[split:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}

	rate := value * multiplier
	if rate <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidDataRate, s)
	}

	return rate, nil
}

func rateMultiplier(unit string) (float64, error) {
	if unit == "" {
		return 1, nil
	}

	for suffix, bits := range rateUnits {
		if !strings.HasSuffix(unit, suffix) {
			continue
		}

		prefix, found := ratePrefixes[strings.TrimSuffix(unit, suffix)]
		if found {
			return prefix * bits, nil
		}
	}

	return 0, ErrInvalidDataRate
}
