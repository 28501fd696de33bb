package universe

import (
	"context"
	"errors"
	"testing"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/cache"
)

type fakeTables struct {
	tables map[string][]models.MarketRow
	errs   map[string]error
	calls  map[string]int
}

func (f *fakeTables) FetchMarketTable(_ context.Context, date string) ([]models.MarketRow, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[date]++
	if err := f.errs[date]; err != nil {
		return nil, err
	}
	return f.tables[date], nil
}

func row(symbol string, high, low, close float64, volume float64) models.MarketRow {
	return models.MarketRow{Symbol: symbol, High: high, Low: low, Close: close, Volume: volume}
}

func testSelectorConfig() Config {
	return Config{
		Size:            3,
		CodeLength:      4,
		ExcludePrefixes: []string{"00"},
		ExcludeSymbols:  []string{"TAIEX"},
		MinTableRows:    3,
	}
}

func TestResolveRanksByTurnover(t *testing.T) {
	tables := &fakeTables{tables: map[string][]models.MarketRow{
		"2026-08-27": {
			row("2330", 1000, 980, 990, 30000),  // 29.7B
			row("2317", 210, 200, 205, 80000),   // 16.4B
			row("2454", 1500, 1480, 1490, 5000), // 7.45B
			row("1101", 40, 39, 39.5, 10000),    // 0.395B
		},
	}}
	s := NewSelector(testSelectorConfig(), tables, nil, nil)

	u, err := s.Resolve(context.Background(), []string{"2026-08-27"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.BaselineDate != "2026-08-27" {
		t.Fatalf("baseline date = %q", u.BaselineDate)
	}
	want := []string{"2330", "2317", "2454"}
	got := u.Symbols()
	if len(got) != len(want) {
		t.Fatalf("got %d members, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank %d = %q, want %q", i+1, got[i], want[i])
		}
	}
	if u.Members[0].Rank != 1 || u.Members[2].Rank != 3 {
		t.Fatalf("ranks not sequential: %+v", u.Members)
	}
}

func TestResolveFiltersCodes(t *testing.T) {
	tables := &fakeTables{tables: map[string][]models.MarketRow{
		"2026-08-27": {
			row("0050", 200, 198, 199, 900000), // ETF prefix, huge turnover
			row("TAIEX", 24000, 23800, 23900, 1),
			row("23305", 100, 99, 100, 1000), // wrong length
			row("23A0", 100, 99, 100, 1000),  // non-numeric
			row("2330", 1000, 980, 990, 30000),
			row("2317", 210, 200, 205, 80000),
			row("2454", 1500, 1480, 1490, 5000),
		},
	}}
	s := NewSelector(testSelectorConfig(), tables, nil, nil)

	u, err := s.Resolve(context.Background(), []string{"2026-08-27"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, m := range u.Members {
		switch m.Symbol {
		case "0050", "TAIEX", "23305", "23A0":
			t.Fatalf("ineligible symbol %q made the cut", m.Symbol)
		}
	}
	if len(u.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(u.Members))
	}
}

func TestResolveFallsBackPastThinAndFailedDays(t *testing.T) {
	good := []models.MarketRow{
		row("2330", 1000, 980, 990, 30000),
		row("2317", 210, 200, 205, 80000),
		row("2454", 1500, 1480, 1490, 5000),
	}
	tables := &fakeTables{
		tables: map[string][]models.MarketRow{
			"2026-08-28": {row("2330", 1000, 980, 990, 30000)}, // holiday stub
			"2026-08-26": good,
		},
		errs: map[string]error{"2026-08-27": errors.New("upstream 500")},
	}
	s := NewSelector(testSelectorConfig(), tables, nil, nil)

	u, err := s.Resolve(context.Background(), []string{"2026-08-28", "2026-08-27", "2026-08-26"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.BaselineDate != "2026-08-26" {
		t.Fatalf("baseline date = %q, want the first usable day", u.BaselineDate)
	}
}

func TestResolveErrorWhenNoCandidateUsable(t *testing.T) {
	tables := &fakeTables{errs: map[string]error{
		"2026-08-28": errors.New("down"),
		"2026-08-27": errors.New("down"),
	}}
	s := NewSelector(testSelectorConfig(), tables, nil, nil)

	_, err := s.Resolve(context.Background(), []string{"2026-08-28", "2026-08-27"})
	if !errors.Is(err, models.ErrUniverseResolution) {
		t.Fatalf("err = %v, want ErrUniverseResolution", err)
	}
}

func TestResolveCachesPerDate(t *testing.T) {
	tables := &fakeTables{tables: map[string][]models.MarketRow{
		"2026-08-27": {
			row("2330", 1000, 980, 990, 30000),
			row("2317", 210, 200, 205, 80000),
			row("2454", 1500, 1480, 1490, 5000),
		},
	}}
	s := NewSelector(testSelectorConfig(), tables, cache.NewMemory(), nil)
	ctx := context.Background()

	first, err := s.Resolve(ctx, []string{"2026-08-27"})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := s.Resolve(ctx, []string{"2026-08-27"})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if tables.calls["2026-08-27"] != 1 {
		t.Fatalf("table fetched %d times, want 1", tables.calls["2026-08-27"])
	}
	if len(second.Members) != len(first.Members) || second.Members[0] != first.Members[0] {
		t.Fatalf("cached universe differs: %+v vs %+v", second.Members, first.Members)
	}
}
