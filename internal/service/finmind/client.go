package finmind

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/logger"
)

const defaultBaseURL = "https://api.finmindtrade.com/api/v4/data"

// Config holds FinMind connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

// Client talks to the FinMind open-data API. It serves three roles:
// live snapshots (QuoteProvider), daily bars (HistoryProvider) and the
// full-market daily table (MarketTableProvider).
type Client struct {
	http    *resty.Client
	baseURL string
	token   string
	log     *logger.Logger
}

// NewClient creates a FinMind client. The token is optional but the
// anonymous quota is tight, so production runs should set one.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Client{http: httpc, baseURL: cfg.BaseURL, token: cfg.Token, log: log}
}

// Name implements QuoteProvider.
func (c *Client) Name() string { return "finmind" }

type priceRow struct {
	Date    string  `json:"date"`
	StockID string  `json:"stock_id"`
	Open    float64 `json:"open"`
	High    float64 `json:"max"`
	Low     float64 `json:"min"`
	Close   float64 `json:"close"`
	Volume  float64 `json:"Trading_Volume"`
}

type priceResponse struct {
	Msg    string     `json:"msg"`
	Status int        `json:"status"`
	Data   []priceRow `json:"data"`
}

type snapshotRow struct {
	Date    string  `json:"date"`
	StockID string  `json:"stock_id"`
	Close   float64 `json:"close"`
	Buy     float64 `json:"buy_price"`
	Sell    float64 `json:"sell_price"`
}

type snapshotResponse struct {
	Msg    string        `json:"msg"`
	Status int           `json:"status"`
	Data   []snapshotRow `json:"data"`
}

// FetchQuotes pulls the tick snapshot for the given symbols. Rows whose
// snapshot date does not match targetDate are dropped rather than
// returned stale.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string, targetDate string) (map[string]models.Quote, error) {
	var out snapshotResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.params(map[string]string{
			"dataset": "TaiwanStockTickSnapshot",
			"data_id": strings.Join(symbols, ","),
		})).
		SetResult(&out).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: finmind snapshot: %v", models.ErrProviderUnavailable, err)
	}
	if resp.IsError() || out.Status != 200 {
		return nil, fmt.Errorf("%w: finmind snapshot: http %d msg %q",
			models.ErrProviderUnavailable, resp.StatusCode(), out.Msg)
	}

	quotes := make(map[string]models.Quote, len(out.Data))
	for _, row := range out.Data {
		date := dateOnly(row.Date)
		if date != targetDate {
			continue
		}
		price, field, ok := models.ResolvePrice(row.Close, 0, row.Buy, row.Sell)
		if !ok {
			continue
		}
		quotes[row.StockID] = models.Quote{
			Symbol:     row.StockID,
			Price:      price,
			Date:       date,
			Provenance: models.Provenance{Provider: c.Name(), Field: field},
		}
	}
	return quotes, nil
}

// FetchHistory pulls daily bars for one symbol from sinceDate, ascending.
// The benchmark index rides the same dataset under its own identifier.
func (c *Client) FetchHistory(ctx context.Context, symbol string, sinceDate string) ([]models.Bar, error) {
	rows, err := c.fetchPrices(ctx, map[string]string{
		"dataset":    "TaiwanStockPrice",
		"data_id":    symbol,
		"start_date": sinceDate,
	})
	if err != nil {
		return nil, err
	}
	bars := make([]models.Bar, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		date := dateOnly(row.Date)
		if seen[date] {
			continue
		}
		seen[date] = true
		bars = append(bars, models.Bar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return bars, nil
}

// FetchMarketTable pulls the whole-market daily rows for one date.
func (c *Client) FetchMarketTable(ctx context.Context, date string) ([]models.MarketRow, error) {
	rows, err := c.fetchPrices(ctx, map[string]string{
		"dataset":    "TaiwanStockPrice",
		"start_date": date,
		"end_date":   date,
	})
	if err != nil {
		return nil, err
	}
	table := make([]models.MarketRow, 0, len(rows))
	for _, row := range rows {
		if dateOnly(row.Date) != date {
			continue
		}
		table = append(table, models.MarketRow{
			Symbol: row.StockID,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return table, nil
}

func (c *Client) fetchPrices(ctx context.Context, params map[string]string) ([]priceRow, error) {
	var out priceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.params(params)).
		SetResult(&out).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: finmind prices: %v", models.ErrProviderUnavailable, err)
	}
	if resp.IsError() || out.Status != 200 {
		return nil, fmt.Errorf("%w: finmind prices: http %d msg %q",
			models.ErrProviderUnavailable, resp.StatusCode(), out.Msg)
	}
	return out.Data, nil
}

func (c *Client) params(p map[string]string) map[string]string {
	if c.token != "" {
		p["token"] = c.token
	}
	return p
}

// dateOnly strips an optional time component, "2026-08-28 13:30:00"
// style timestamps show up on the snapshot dataset.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
