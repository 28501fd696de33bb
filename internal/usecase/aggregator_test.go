package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BreadthPulse/internal/domain/models"
	domrepo "BreadthPulse/internal/domain/repository"
)

type fakeProvider struct {
	name   string
	quotes map[string]models.Quote
	err    error
	asked  [][]string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchQuotes(_ context.Context, symbols []string, _ string) (map[string]models.Quote, error) {
	f.asked = append(f.asked, append([]string(nil), symbols...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]models.Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func quoteFrom(provider, symbol string, price float64, date string) models.Quote {
	return models.Quote{
		Symbol:     symbol,
		Price:      price,
		Date:       date,
		Provenance: models.Provenance{Provider: provider, Field: models.FieldTrade},
	}
}

func TestCollectFallsThroughTheChain(t *testing.T) {
	day := "2026-08-28"
	first := &fakeProvider{name: "first", quotes: map[string]models.Quote{
		"2330": quoteFrom("first", "2330", 990, day),
	}}
	second := &fakeProvider{name: "second", quotes: map[string]models.Quote{
		"2330": quoteFrom("second", "2330", 991, day), // must not override
		"2317": quoteFrom("second", "2317", 205, day),
	}}

	agg := NewQuoteAggregator([]domrepo.QuoteProvider{first, second}, time.Second, nil, nil)
	quotes := agg.Collect(context.Background(), []string{"2330", "2317", "2454"}, day)

	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if quotes["2330"].Provenance.Provider != "first" {
		t.Fatalf("earlier provider must win, got %q", quotes["2330"].Provenance.Provider)
	}
	if quotes["2317"].Provenance.Provider != "second" {
		t.Fatalf("gap fill came from %q", quotes["2317"].Provenance.Provider)
	}
	if len(second.asked) != 1 || len(second.asked[0]) != 2 {
		t.Fatalf("second provider should only see unanswered symbols, saw %v", second.asked)
	}
}

func TestCollectSurvivesProviderFailure(t *testing.T) {
	day := "2026-08-28"
	broken := &fakeProvider{name: "broken", err: errors.New("connection refused")}
	working := &fakeProvider{name: "working", quotes: map[string]models.Quote{
		"2330": quoteFrom("working", "2330", 990, day),
	}}

	agg := NewQuoteAggregator([]domrepo.QuoteProvider{broken, working}, time.Second, nil, nil)
	quotes := agg.Collect(context.Background(), []string{"2330"}, day)

	if len(quotes) != 1 || quotes["2330"].Price != 990 {
		t.Fatalf("chain should degrade past the failure, got %v", quotes)
	}
}

func TestCollectRejectsStaleAndZeroQuotes(t *testing.T) {
	day := "2026-08-28"
	p := &fakeProvider{name: "p", quotes: map[string]models.Quote{
		"2330": quoteFrom("p", "2330", 990, "2026-08-27"), // prior session
		"2317": quoteFrom("p", "2317", 0, day),            // no usable price
		"2454": quoteFrom("p", "2454", 1490, day),
	}}

	agg := NewQuoteAggregator([]domrepo.QuoteProvider{p}, time.Second, nil, nil)
	quotes := agg.Collect(context.Background(), []string{"2330", "2317", "2454"}, day)

	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want only the fresh positive one", len(quotes))
	}
	if _, ok := quotes["2454"]; !ok {
		t.Fatal("fresh quote missing")
	}
}

func TestCollectStopsOnceCovered(t *testing.T) {
	day := "2026-08-28"
	first := &fakeProvider{name: "first", quotes: map[string]models.Quote{
		"2330": quoteFrom("first", "2330", 990, day),
	}}
	second := &fakeProvider{name: "second"}

	agg := NewQuoteAggregator([]domrepo.QuoteProvider{first, second}, time.Second, nil, nil)
	agg.Collect(context.Background(), []string{"2330"}, day)

	if len(second.asked) != 0 {
		t.Fatalf("fully covered chain should stop early, second saw %v", second.asked)
	}
}
