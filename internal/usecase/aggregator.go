package usecase

import (
	"context"
	"time"

	"BreadthPulse/internal/domain/models"
	domrepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/pkg/logger"
)

// QuoteAggregator merges live quotes from an ordered provider chain.
// Each provider only sees the symbols the earlier ones did not answer,
// so the cheap sources absorb the bulk and the fallbacks fill gaps.
type QuoteAggregator struct {
	providers []domrepo.QuoteProvider
	timeout   time.Duration
	metrics   domrepo.Metrics
	log       *logger.Logger
}

// NewQuoteAggregator creates an aggregator over the given chain. Order
// matters and is preserved.
func NewQuoteAggregator(providers []domrepo.QuoteProvider, timeout time.Duration, metrics domrepo.Metrics, log *logger.Logger) *QuoteAggregator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &QuoteAggregator{providers: providers, timeout: timeout, metrics: metrics, log: log}
}

// Collect returns whatever quotes the chain produced for targetDate.
// A provider error never aborts the pass: the chain degrades through
// the remaining sources and partial coverage is a valid result.
func (a *QuoteAggregator) Collect(ctx context.Context, symbols []string, targetDate string) map[string]models.Quote {
	quotes := make(map[string]models.Quote, len(symbols))

	for _, p := range a.providers {
		if ctx.Err() != nil {
			break
		}
		remaining := missing(symbols, quotes)
		if len(remaining) == 0 {
			break
		}

		pctx, cancel := context.WithTimeout(ctx, a.timeout)
		got, err := p.FetchQuotes(pctx, remaining, targetDate)
		cancel()
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("provider_" + p.Name())
			}
			if a.log != nil {
				a.log.Warn("quote provider failed, falling through",
					logger.String("provider", p.Name()),
					logger.Int("remaining", len(remaining)),
					logger.Error(err))
			}
		}
		for symbol, q := range got {
			if q.Price <= 0 || q.Date != targetDate {
				continue
			}
			if _, exists := quotes[symbol]; exists {
				continue
			}
			quotes[symbol] = q
			if a.metrics != nil {
				a.metrics.RecordQuote(q.Provenance.Provider, q.Provenance.Field)
			}
		}
		if a.log != nil {
			a.log.Debug("provider pass done",
				logger.String("provider", p.Name()),
				logger.Int("asked", len(remaining)),
				logger.Int("answered", len(got)),
				logger.Int("total", len(quotes)))
		}
	}

	return quotes
}

func missing(symbols []string, have map[string]models.Quote) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := have[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
