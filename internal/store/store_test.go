package store

import (
	"context"
	"testing"

	"BreadthPulse/internal/domain/models"
)

func sample(date, clock string, ratio float64, valid int) models.BreadthSample {
	return models.BreadthSample{
		Date: date, Time: clock, Ratio: ratio,
		HitCount: int(ratio * float64(valid)), ValidCount: valid, UniverseSize: 300,
	}
}

func TestAppendDeduplicatesSameMinute(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	if !s.Append(ctx, sample("2025-03-14", "09:30", 0.50, 290), true) {
		t.Fatalf("first append must record")
	}
	if s.Append(ctx, sample("2025-03-14", "09:30", 0.51, 290), true) {
		t.Fatalf("duplicate (date,time) must not record")
	}
	if got := len(s.SamplesFor("2025-03-14")); got != 1 {
		t.Fatalf("expected 1 sample, got %d", got)
	}
}

func TestAppendTruncatesToGranularity(t *testing.T) {
	s := New(5, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:31", 0.50, 290), true)
	if s.Append(ctx, sample("2025-03-14", "09:33", 0.52, 290), true) {
		t.Fatalf("same 5-minute bucket must not record twice")
	}
	if !s.Append(ctx, sample("2025-03-14", "09:36", 0.52, 290), true) {
		t.Fatalf("next bucket must record")
	}
}

func TestClockMatchesAppendGrid(t *testing.T) {
	s := New(5, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:33", 0.50, 290), true)
	day := s.SamplesFor("2025-03-14")
	if len(day) != 1 || day[0].Time != s.Clock("09:33") {
		t.Fatalf("Clock must land on the stored time, got %q vs %q", s.Clock("09:33"), day[0].Time)
	}
	if got := s.Clock("09:33"); got != "09:30" {
		t.Fatalf("Clock(09:33) = %q, want 09:30", got)
	}
}

func TestPostCloseReplacesDay(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:30", 0.50, 290), true)
	s.Append(ctx, sample("2025-03-14", "10:30", 0.55, 295), true)
	s.Append(ctx, sample("2025-03-14", "14:00", 0.60, 300), false)

	day := s.SamplesFor("2025-03-14")
	if len(day) != 1 {
		t.Fatalf("post-close write must replace, got %d records", len(day))
	}
	if day[0].Ratio != 0.60 {
		t.Fatalf("expected finalized record, got %+v", day[0])
	}
}

func TestNewDateStartsFreshLog(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-13", "13:30", 0.40, 290), true)
	s.Append(ctx, sample("2025-03-14", "09:05", 0.45, 290), true)

	if got := len(s.SamplesFor("2025-03-13")); got != 1 {
		t.Fatalf("prior day log disturbed: %d", got)
	}
	if got := len(s.SamplesFor("2025-03-14")); got != 1 {
		t.Fatalf("new day log missing: %d", got)
	}
}

func TestFirstWithCoverage(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:05", 0.55, 150), true)
	s.Append(ctx, sample("2025-03-14", "09:10", 0.52, 295), true)

	got, ok := s.FirstWithCoverage("2025-03-14", 290)
	if !ok {
		t.Fatalf("expected a qualifying sample")
	}
	if got.Ratio != 0.52 {
		t.Fatalf("thin early sample must not qualify, got %+v", got)
	}
}

func TestRange(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:05", 0.50, 290), true)
	s.Append(ctx, sample("2025-03-14", "09:10", 0.70, 290), true)
	s.Append(ctx, sample("2025-03-14", "09:15", 0.45, 290), true)

	max, min, ok := s.Range("2025-03-14")
	if !ok || max != 0.70 || min != 0.45 {
		t.Fatalf("unexpected range max=%.2f min=%.2f ok=%v", max, min, ok)
	}
}

func TestNearestAround(t *testing.T) {
	s := New(1, nil, nil)
	ctx := context.Background()

	s.Append(ctx, sample("2025-03-14", "09:05", 0.50, 290), true)
	s.Append(ctx, sample("2025-03-14", "09:20", 0.55, 290), true)

	got, ok := s.NearestAround("2025-03-14", 9*60+7, 3)
	if !ok || got.Time != "09:05" {
		t.Fatalf("expected 09:05 sample, got %+v ok=%v", got, ok)
	}
	if _, ok := s.NearestAround("2025-03-14", 9*60+12, 2); ok {
		t.Fatalf("nothing within tolerance must mean no match")
	}
}
