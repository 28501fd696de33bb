package util

import (
	"time"
)

// DateLayout is the canonical calendar-date format used across the engine.
const DateLayout = "2006-01-02"

// ClockLayout is the canonical intraday time-of-day format.
const ClockLayout = "15:04"

// ParseDate parses a YYYY-MM-DD date. Returns (t, true) if it parsed.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as YYYY-MM-DD in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ClockOf renders the time-of-day of t as HH:MM.
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// MinuteOf converts an HH:MM clock string to minutes since midnight.
// Returns -1 for anything that does not parse.
func MinuteOf(clock string) int {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// TruncateClock floors an HH:MM clock onto a granularity in minutes.
func TruncateClock(clock string, granularityMin int) string {
	m := MinuteOf(clock)
	if m < 0 || granularityMin <= 1 {
		return clock
	}
	m = (m / granularityMin) * granularityMin
	return time.Date(0, 1, 1, m/60, m%60, 0, 0, time.UTC).Format(ClockLayout)
}

// RecentWeekdays returns the most recent n dates whose weekday is in
// allowed, ending at (and including, if allowed) the day of now.
// The result is ascending.
func RecentWeekdays(now time.Time, n int, allowed map[time.Weekday]bool) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	d := now
	for len(out) < n {
		if allowed[d.Weekday()] {
			out = append(out, FormatDate(d))
		}
		d = d.AddDate(0, 0, -1)
	}
	// collected newest-first; reverse to ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
