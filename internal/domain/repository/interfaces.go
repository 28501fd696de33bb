package repository

import (
	"context"

	"BreadthPulse/internal/domain/models"
)

// QuoteProvider fetches one live price per symbol for a target trading
// day. Partial results are the expected case: a missing symbol is not an
// error, a completely failed provider is.
type QuoteProvider interface {
	Name() string
	FetchQuotes(ctx context.Context, symbols []string, targetDate string) (map[string]models.Quote, error)
}

// HistoryProvider fetches daily bars for one symbol from sinceDate,
// ascending by date without duplicates.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, sinceDate string) ([]models.Bar, error)
}

// MarketTableProvider fetches the full-market daily table for one date.
type MarketTableProvider interface {
	FetchMarketTable(ctx context.Context, date string) ([]models.MarketRow, error)
}

// SampleRepo persists breadth samples. Failures are logged and non-fatal:
// the in-memory day log stays authoritative within a session.
type SampleRepo interface {
	Insert(ctx context.Context, s models.BreadthSample) error
	ReplaceDay(ctx context.Context, date string, final models.BreadthSample) error
	QueryDay(ctx context.Context, date string) ([]models.BreadthSample, error)
	Close() error
}

// EventSink delivers alert events. Delivery failure is non-fatal and the
// core does not retry.
type EventSink interface {
	Deliver(ctx context.Context, ev models.AlertEvent) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordQuote(provider, field string)
	RecordError(kind string)
	RecordBreadth(day string, ratio float64)
	RecordCoverage(n int)
	RecordEvent(kind string)
	RecordLatency(op string, seconds float64)
}
