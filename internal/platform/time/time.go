// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// FromUnix converts provider epoch seconds to UTC; 0 stays the zero Time
func FromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// maxDays bounds DaysBefore; longer windows reach past any stored timestamp
const maxDays = 1 << 20

// DaysBefore returns the calendar date days before now at the same clock time
// days <= 0 returns the zero Time meaning "no lower bound", as do windows past maxDays
func DaysBefore(now time.Time, days int) time.Time {
	if days <= 0 || days > maxDays {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}
