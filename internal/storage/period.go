package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxPeriodDays is the longest day count a time.Duration can hold.
const maxPeriodDays = math.MaxInt64 / int64(24*time.Hour)

// ParsePeriod parses a look-back period. It accepts everything
// time.ParseDuration does plus whole days such as "7d".
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n < 0 || n > maxPeriodDays {
			return 0, fmt.Errorf("invalid period %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid period %q", s)
	}
	return d, nil
}
