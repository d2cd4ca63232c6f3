package model

import (
	"fmt"
	"math"
)

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM", rounding to the
// nearest minute.
func FormatClock(min float64) string {
	n := int(math.Round(min))
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%02d:%02d", n/60, n%60)
}
