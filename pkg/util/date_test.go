package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-03-14")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2025-03-14" {
		t.Fatalf("unexpected date %v", got)
	}
	if _, ok := ParseDate("14/03/2025"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestMinuteOf(t *testing.T) {
	if m := MinuteOf("13:05"); m != 13*60+5 {
		t.Fatalf("unexpected minutes %d", m)
	}
	if m := MinuteOf("bogus"); m != -1 {
		t.Fatalf("expected -1, got %d", m)
	}
}

func TestTruncateClock(t *testing.T) {
	if got := TruncateClock("09:07", 5); got != "09:05" {
		t.Fatalf("unexpected truncation %s", got)
	}
	if got := TruncateClock("09:07", 1); got != "09:07" {
		t.Fatalf("granularity 1 must be identity, got %s", got)
	}
}

func TestRecentWeekdays(t *testing.T) {
	allowed := map[time.Weekday]bool{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true,
		time.Thursday: true, time.Friday: true,
	}
	// 2025-03-16 is a Sunday; the 5 most recent weekdays end on Friday the 14th.
	now := time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC)
	got := RecentWeekdays(now, 5, allowed)
	want := []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %s want %s", i, got[i], want[i])
		}
	}
}
