package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"BreadthPulse/internal/domain/models"
)

type fakeHistory struct {
	bars []models.Bar
	err  error
}

func (f *fakeHistory) FetchHistory(_ context.Context, _ string, _ string) ([]models.Bar, error) {
	return f.bars, f.err
}

func tradingWeekdays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true,
		time.Thursday: true, time.Friday: true,
	}
}

func newTestCalendar(h *fakeHistory, now time.Time) *Calendar {
	c := NewCalendar(h, CalendarConfig{
		ReferenceSymbol: "0050",
		Location:        time.UTC,
		OpenMinute:      8*60 + 30,
		CloseMinute:     13*60 + 30,
		Weekdays:        tradingWeekdays(),
		LookbackDays:    20,
		FallbackDays:    10,
	}, nil)
	c.now = func() time.Time { return now }
	return c
}

func TestTradingDaysAppendsTodayDuringSession(t *testing.T) {
	h := &fakeHistory{bars: []models.Bar{
		{Date: "2025-03-12", Close: 100},
		{Date: "2025-03-13", Close: 101},
	}}
	// Friday 2025-03-14 at 10:00, inside the session.
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	days, err := newTestCalendar(h, now).TradingDays(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := days[len(days)-1]; got != "2025-03-14" {
		t.Fatalf("expected today appended, got %s", got)
	}
	if days[0] != "2025-03-12" {
		t.Fatalf("expected history preserved, got %v", days)
	}
}

func TestTradingDaysNoAppendOutsideSession(t *testing.T) {
	h := &fakeHistory{bars: []models.Bar{{Date: "2025-03-13", Close: 101}}}
	// Friday 07:00, before the pre-open window.
	now := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)

	days, err := newTestCalendar(h, now).TradingDays(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := days[len(days)-1]; got != "2025-03-13" {
		t.Fatalf("today must not be appended before open, got %s", got)
	}
}

func TestTradingDaysNoAppendOnWeekend(t *testing.T) {
	h := &fakeHistory{bars: []models.Bar{{Date: "2025-03-14", Close: 101}}}
	// Saturday mid-morning.
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	days, err := newTestCalendar(h, now).TradingDays(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := days[len(days)-1]; got != "2025-03-14" {
		t.Fatalf("weekend must not be appended, got %s", got)
	}
}

func TestTradingDaysNoAppendWhenHistoryAlreadyCurrent(t *testing.T) {
	h := &fakeHistory{bars: []models.Bar{
		{Date: "2025-03-13", Close: 100},
		{Date: "2025-03-14", Close: 101},
	}}
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	days, err := newTestCalendar(h, now).TradingDays(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(days); n != 2 {
		t.Fatalf("today must not be duplicated, got %v", days)
	}
}

func TestTradingDaysDegradesToWeekdayFallback(t *testing.T) {
	h := &fakeHistory{err: errors.New("feed down")}
	// Sunday: fallback ends at Friday 2025-03-14, and today isn't appended.
	now := time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC)

	days, err := newTestCalendar(h, now).TradingDays(context.Background())
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if len(days) != 10 {
		t.Fatalf("expected 10 synthesized weekdays, got %d", len(days))
	}
	if days[len(days)-1] != "2025-03-14" {
		t.Fatalf("expected fallback to end on Friday, got %s", days[len(days)-1])
	}
}
