package exchange

import (
	"fmt"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ParseInterval converts a candle interval string like 1m, 15m, 4h, 1d or 1w
// into a duration
func ParseInterval(interval string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("parsing interval %q: %w", interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parsing interval %q: not positive", interval)
	}
	return d, nil
}

// NextBoundary returns the first instant strictly after t that falls on a
// whole multiple of the interval, measured from the Unix epoch in UTC.
// Exchange candles open on these boundaries.
func NextBoundary(t time.Time, interval string) (time.Time, error) {
	d, err := ParseInterval(interval)
	if err != nil {
		return time.Time{}, err
	}

	truncated := t.UTC().Truncate(d)
	if !truncated.After(t.UTC()) {
		truncated = truncated.Add(d)
	}
	return truncated, nil
}
