package yahoo

import (
	"context"
	"net/http"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/logger"
	"BreadthPulse/pkg/util"
)

const fetchConcurrency = 8

// Config holds Yahoo lookup settings.
type Config struct {
	Suffixes []string       // listing suffixes tried in order
	Location *time.Location // market timezone for the quote's trade date
	Timeout  time.Duration  // per-request HTTP deadline
}

// Client is the last-resort quote source. Symbols are bare exchange
// codes, so each lookup tries the configured listing suffixes in order
// until one resolves.
type Client struct {
	suffixes []string
	loc      *time.Location
	log      *logger.Logger

	fetch func(symbol string) (*finance.Quote, error)
}

// NewClient creates a Yahoo quote client. A positive Timeout replaces
// the library's default HTTP client so no single lookup can outlive the
// aggregator's per-provider budget.
func NewClient(cfg Config, log *logger.Logger) *Client {
	suffixes := cfg.Suffixes
	if len(suffixes) == 0 {
		suffixes = []string{".TW", ".TWO"}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if cfg.Timeout > 0 {
		finance.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	}
	return &Client{suffixes: suffixes, loc: loc, log: log, fetch: quote.Get}
}

// Name implements QuoteProvider.
func (c *Client) Name() string { return "yahoo" }

// FetchQuotes looks every symbol up with a bounded fan-out. A symbol
// whose freshest price belongs to an earlier session is dropped, not
// reported stale. An expired context stops the collection immediately;
// stragglers finish against the buffered channel and are discarded.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string, targetDate string) (map[string]models.Quote, error) {
	type result struct {
		quote models.Quote
		ok    bool
	}
	results := make(chan result, len(symbols))
	sem := make(chan struct{}, fetchConcurrency)

	spawned := 0
spawn:
	for _, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break spawn
		}
		spawned++
		go func(symbol string) {
			defer func() { <-sem }()
			q, ok := c.lookup(symbol, targetDate)
			results <- result{quote: q, ok: ok}
		}(symbol)
	}

	quotes := make(map[string]models.Quote, spawned)
	for i := 0; i < spawned; i++ {
		select {
		case r := <-results:
			if r.ok {
				quotes[r.quote.Symbol] = r.quote
			}
		case <-ctx.Done():
			return quotes, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return quotes, ctx.Err()
	}
	return quotes, nil
}

func (c *Client) lookup(symbol, targetDate string) (models.Quote, bool) {
	for _, suffix := range c.suffixes {
		q, err := c.fetch(symbol + suffix)
		if err != nil || q == nil {
			continue
		}
		if q.RegularMarketPrice <= 0 {
			continue
		}
		traded := time.Unix(int64(q.RegularMarketTime), 0).In(c.loc)
		if util.FormatDate(traded) != targetDate {
			continue
		}
		return models.Quote{
			Symbol:     symbol,
			Price:      q.RegularMarketPrice,
			Date:       targetDate,
			Provenance: models.Provenance{Provider: c.Name(), Field: models.FieldTrade},
		}, true
	}
	return models.Quote{}, false
}
