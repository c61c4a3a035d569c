// Package progress tracks minutes read per day and the consecutive-day
// streak. Both live in the persisted store; the ledger holds no cache,
// every call is a fresh read-modify-write.
package progress

import (
	"fmt"
	"time"

	"github.com/abelbrown/brief/internal/clock"
	"github.com/abelbrown/brief/internal/logging"
	"github.com/abelbrown/brief/internal/store"
)

// StreakRecord is the persisted streak state. Streak is >= 1 whenever
// the record has ever been written.
type StreakRecord struct {
	LastSeen string `json:"lastSeen"`
	Streak   int    `json:"streak"`
}

// Ledger reads and mutates the daily-minutes and streak records.
type Ledger struct {
	store *store.Store
	now   func() time.Time // overridable in tests
}

// New creates a Ledger backed by the given store.
func New(st *store.Store) *Ledger {
	return &Ledger{store: st, now: time.Now}
}

// CreditMinutes adds n minutes to today's entry. n must be non-negative.
// The stored value is clamped at zero so a corrupt negative entry can
// never survive a credit.
func (l *Ledger) CreditMinutes(n int) error {
	if n < 0 {
		return fmt.Errorf("credit minutes: negative amount %d", n)
	}

	today := clock.DayKey(l.now())
	minutes := map[string]int{}
	l.store.Get(store.KeyMinutes, &minutes)

	total := minutes[today] + n
	if total < 0 {
		total = 0
	}
	minutes[today] = total

	return l.store.Set(store.KeyMinutes, minutes)
}

// MinutesToday returns the minutes credited today, defaulting to 0.
func (l *Ledger) MinutesToday() int {
	minutes := map[string]int{}
	l.store.Get(store.KeyMinutes, &minutes)

	m := minutes[clock.DayKey(l.now())]
	if m < 0 {
		return 0
	}
	return m
}

// BumpStreakIfNewDay advances the streak for today and returns the new
// value. Calling it again the same day is a no-op returning the stored
// streak. A last-seen exactly one day back increments; any gap, missing
// record, or unparseable key resets to 1.
func (l *Ledger) BumpStreakIfNewDay() (int, error) {
	var rec StreakRecord
	l.store.Get(store.KeyStreak, &rec)

	today := clock.DayKey(l.now())
	if rec.LastSeen == today && rec.Streak >= 1 {
		return rec.Streak, nil
	}

	newStreak := 1
	if rec.LastSeen != "" {
		dist, err := clock.DayDistance(today, rec.LastSeen)
		if err != nil {
			logging.Warn("streak record has bad day key, resetting", "lastSeen", rec.LastSeen)
		} else if dist == 1 {
			newStreak = rec.Streak + 1
		}
	}
	if newStreak < 1 {
		newStreak = 1
	}

	if err := l.store.Set(store.KeyStreak, StreakRecord{LastSeen: today, Streak: newStreak}); err != nil {
		return newStreak, err
	}
	return newStreak, nil
}

// Streak returns the current streak without mutating it, 0 if no record
// has ever been written.
func (l *Ledger) Streak() int {
	var rec StreakRecord
	l.store.Get(store.KeyStreak, &rec)
	if rec.Streak < 0 {
		return 0
	}
	return rec.Streak
}

// DailyProgressPercent returns 100 * min(1, minutesToday/goal),
// in [0, 100]. goalMinutes must be positive.
func (l *Ledger) DailyProgressPercent(goalMinutes int) float64 {
	if goalMinutes <= 0 {
		return 0
	}
	pct := 100 * float64(l.MinutesToday()) / float64(goalMinutes)
	if pct > 100 {
		return 100
	}
	return pct
}
