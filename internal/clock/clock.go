// Package clock provides calendar-day arithmetic for the ledgers.
//
// Day keys are always derived in UTC. The two things everything else
// depends on are: the same instant always maps to the same key, and the
// distance between two keys is exact calendar subtraction.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate indicates a day key that does not parse as YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid day key")

// keyLayout is the canonical day key format.
const keyLayout = "2006-01-02"

// DayKey returns the canonical YYYY-MM-DD key for an instant, in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(keyLayout)
}

// Today returns the day key for the current instant.
func Today() string {
	return DayKey(time.Now())
}

// Parse converts a day key back to its UTC midnight.
func Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(keyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// DayDistance returns the signed number of calendar days from b to a,
// so DayDistance("2025-03-02", "2025-03-01") == 1. Both keys are pinned
// to UTC midnight before subtracting, which keeps the result an exact
// integer regardless of what wall clock produced the keys.
func DayDistance(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return int(ta.Sub(tb) / (24 * time.Hour)), nil
}
