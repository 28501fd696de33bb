package breadth

import (
	"testing"

	"BreadthPulse/internal/domain/models"
)

func TestIndexSlopePositive(t *testing.T) {
	hist := bars(
		"2025-03-07", 100.0, "2025-03-10", 101.0, "2025-03-11", 102.0,
		"2025-03-12", 103.0, "2025-03-13", 104.0,
	)
	q := &models.Quote{Symbol: "TAIEX", Price: 110.0, Date: "2025-03-14"}

	s := IndexSlope(hist, q, "2025-03-14", "2025-03-13")
	// today's MA5 over (101..104,110)=104, prev MA5 over (100..104)=102
	if s.MA5 != 104.0 || s.PrevMA5 != 102.0 {
		t.Fatalf("unexpected MAs %+v", s)
	}
	if s.Slope <= 0 {
		t.Fatalf("expected positive slope, got %.2f", s.Slope)
	}
	if s.Level != 110.0 || s.PrevClose != 104.0 {
		t.Fatalf("unexpected levels %+v", s)
	}
}

func TestIndexSlopeWithoutLiveQuote(t *testing.T) {
	hist := bars(
		"2025-03-06", 104.0, "2025-03-07", 104.0, "2025-03-10", 103.0,
		"2025-03-11", 102.0, "2025-03-12", 101.0, "2025-03-13", 100.0,
	)

	s := IndexSlope(hist, nil, "2025-03-14", "2025-03-13")
	// Both windows end at 03-13; the slope degrades to the freshest data.
	if s.MA5 != s.PrevMA5 {
		t.Fatalf("no-quote slope must compare identical windows, got %+v", s)
	}
	if s.Slope != 0 {
		t.Fatalf("expected flat slope, got %.4f", s.Slope)
	}
}

func TestIndexSlopeNeedsBothWindows(t *testing.T) {
	// Four settled bars plus the live print: today's window resolves,
	// the previous day's does not.
	hist := bars(
		"2025-03-10", 101.0, "2025-03-11", 102.0,
		"2025-03-12", 103.0, "2025-03-13", 104.0,
	)
	q := &models.Quote{Symbol: "TAIEX", Price: 110.0, Date: "2025-03-14"}

	s := IndexSlope(hist, q, "2025-03-14", "2025-03-13")
	if s.MA5 != 104.0 {
		t.Fatalf("today's MA5 = %.2f, want 104", s.MA5)
	}
	if s.Slope != 0 {
		t.Fatalf("one-sided window must yield a flat slope, got %.2f", s.Slope)
	}
}

func TestIndexSlopeHistoryOnlyPrevDay(t *testing.T) {
	hist := bars(
		"2025-03-07", 100.0, "2025-03-10", 101.0, "2025-03-11", 102.0,
		"2025-03-12", 103.0, "2025-03-13", 104.0,
	)
	q := &models.Quote{Symbol: "TAIEX", Price: 90.0, Date: "2025-03-14"}

	first := IndexSlope(hist, q, "2025-03-14", "2025-03-13")
	second := IndexSlope(hist, q, "2025-03-14", "2025-03-13")
	if first.PrevMA5 != second.PrevMA5 {
		t.Fatalf("previous-day MA must be deterministic across polls")
	}
	if first.PrevMA5 != 102.0 {
		t.Fatalf("live quote leaked into the previous-day window: %.2f", first.PrevMA5)
	}
}
