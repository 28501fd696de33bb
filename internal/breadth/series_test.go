package breadth

import (
	"errors"
	"reflect"
	"testing"

	"BreadthPulse/internal/domain/models"
)

func bars(pairs ...interface{}) []models.Bar {
	out := make([]models.Bar, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Bar{Date: pairs[i].(string), Close: pairs[i+1].(float64)})
	}
	return out
}

func TestSynthesizeAppendsQuote(t *testing.T) {
	hist := bars("2025-03-12", 10.0, "2025-03-13", 11.0)
	q := &models.Quote{Symbol: "2330", Price: 12.0, Date: "2025-03-14"}

	got := Synthesize(hist, q, "2025-03-14")
	if len(got) != 3 {
		t.Fatalf("expected append, got %d bars", len(got))
	}
	if got[2].Date != "2025-03-14" || got[2].Close != 12.0 {
		t.Fatalf("unexpected tail %+v", got[2])
	}
	if len(hist) != 2 {
		t.Fatalf("input must not be mutated")
	}
}

func TestSynthesizeOverwritesSameDateTail(t *testing.T) {
	hist := bars("2025-03-13", 11.0, "2025-03-14", 11.5)
	q := &models.Quote{Symbol: "2330", Price: 12.0, Date: "2025-03-14"}

	got := Synthesize(hist, q, "2025-03-14")
	if len(got) != 2 {
		t.Fatalf("expected overwrite, got %d bars", len(got))
	}
	if got[1].Close != 12.0 {
		t.Fatalf("expected live close, got %.2f", got[1].Close)
	}
	if hist[1].Close != 11.5 {
		t.Fatalf("input must not be mutated")
	}
}

func TestSynthesizeNoQuoteLeavesSeriesAlone(t *testing.T) {
	hist := bars("2025-03-12", 10.0, "2025-03-13", 11.0)

	got := Synthesize(hist, nil, "2025-03-14")
	if !reflect.DeepEqual(got, hist) {
		t.Fatalf("series must be unmodified without a quote")
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	hist := bars("2025-03-12", 10.0, "2025-03-13", 11.0)
	q := &models.Quote{Symbol: "2330", Price: 12.0, Date: "2025-03-14"}

	once := Synthesize(hist, q, "2025-03-14")
	twice := Synthesize(once, q, "2025-03-14")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("synthesize must be idempotent: %+v vs %+v", once, twice)
	}
	if len(twice) != 3 {
		t.Fatalf("no duplicate dates allowed, got %d bars", len(twice))
	}
}

func TestMA(t *testing.T) {
	series := bars("d1", 1.0, "d2", 2.0, "d3", 3.0, "d4", 4.0, "d5", 5.0, "d6", 6.0)
	ma, ok := MA(series, 5)
	if !ok {
		t.Fatalf("expected ok")
	}
	if ma != 4.0 { // mean of 2..6
		t.Fatalf("unexpected ma %.2f", ma)
	}
	if _, ok := MA(series[:4], 5); ok {
		t.Fatalf("short series must not produce an MA")
	}
}

func TestEvaluateRequiresSeriesEndingOnDate(t *testing.T) {
	series := bars(
		"2025-03-07", 9.0, "2025-03-10", 9.5, "2025-03-11", 10.0,
		"2025-03-12", 10.5, "2025-03-13", 11.0,
	)

	ev, err := Evaluate(series, "2025-03-13", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Pass {
		t.Fatalf("close 11.0 above ma %.2f must pass", ev.MA)
	}

	// Same series evaluated for the next day without lag tolerance.
	if _, err := Evaluate(series, "2025-03-14", 0); !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}

	// With lag tolerance the stale tail is representative.
	if _, err := Evaluate(series, "2025-03-14", 3); err != nil {
		t.Fatalf("lag tolerance must accept a fresh-enough tail: %v", err)
	}
}

func TestEvaluateShortSeriesExcluded(t *testing.T) {
	series := bars("2025-03-11", 10.0, "2025-03-12", 10.5, "2025-03-13", 11.0)
	if _, err := Evaluate(series, "2025-03-13", 0); !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestTally(t *testing.T) {
	var tl Tally
	tl.Add(true)
	tl.Add(false)
	s := tl.Stat()
	if s.Hit != 1 || s.Valid != 2 || s.Ratio != 0.5 {
		t.Fatalf("unexpected stat %+v", s)
	}
	if (Tally{}).Stat().Ratio != 0 {
		t.Fatalf("empty tally ratio must be 0")
	}
}
