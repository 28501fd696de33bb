package twse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/logger"
)

const (
	defaultBaseURL   = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"
	defaultWarmupURL = "https://mis.twse.com.tw/stock/index.jsp"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultBatchSize = 20
)

// Config holds exchange snapshot endpoint settings.
type Config struct {
	BaseURL   string
	WarmupURL string
	UserAgent string
	Timeout   time.Duration
	BatchSize int
}

// Client reads the exchange's delayed snapshot endpoint. The endpoint
// expects a browser session: a warmup request seeds the cookie jar and
// every call carries a browser user agent.
type Client struct {
	http      *resty.Client
	baseURL   string
	warmupURL string
	batchSize int
	log       *logger.Logger

	warmed bool
}

// NewClient creates an exchange snapshot client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.WarmupURL == "" {
		cfg.WarmupURL = defaultWarmupURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	httpc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	return &Client{
		http:      httpc,
		baseURL:   cfg.BaseURL,
		warmupURL: cfg.WarmupURL,
		batchSize: cfg.BatchSize,
		log:       log,
	}
}

// Name implements QuoteProvider.
func (c *Client) Name() string { return "exchange" }

type misRow struct {
	Code    string `json:"c"`
	Trade   string `json:"z"`
	Auction string `json:"pz"`
	Bids    string `json:"b"` // five levels joined by underscore
	Asks    string `json:"a"`
	Date    string `json:"d"` // YYYYMMDD
}

type misResponse struct {
	MsgArray []misRow `json:"msgArray"`
	RtCode   string   `json:"rtcode"`
}

// FetchQuotes pulls snapshot rows in batches. Symbols the endpoint does
// not know are simply absent from the result.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string, targetDate string) (map[string]models.Quote, error) {
	if err := c.warmup(ctx); err != nil {
		return nil, err
	}

	quotes := make(map[string]models.Quote, len(symbols))
	for start := 0; start < len(symbols); start += c.batchSize {
		end := start + c.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		rows, err := c.fetchBatch(ctx, symbols[start:end])
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if dashDate(row.Date) != targetDate {
				continue
			}
			price, field, ok := models.ResolvePrice(
				parsePrice(row.Trade),
				parsePrice(row.Auction),
				firstLevel(row.Bids),
				firstLevel(row.Asks),
			)
			if !ok {
				continue
			}
			quotes[row.Code] = models.Quote{
				Symbol:     row.Code,
				Price:      price,
				Date:       targetDate,
				Provenance: models.Provenance{Provider: c.Name(), Field: field},
			}
		}
	}
	return quotes, nil
}

func (c *Client) fetchBatch(ctx context.Context, symbols []string) ([]misRow, error) {
	channels := make([]string, len(symbols))
	for i, s := range symbols {
		channels[i] = "tse_" + s + ".tw"
	}

	var out misResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ex_ch": strings.Join(channels, "|"),
			"json":  "1",
			"delay": "0",
		}).
		SetResult(&out).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange snapshot: %v", models.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: exchange snapshot: http %d",
			models.ErrProviderUnavailable, resp.StatusCode())
	}
	return out.MsgArray, nil
}

func (c *Client) warmup(ctx context.Context) error {
	if c.warmed {
		return nil
	}
	resp, err := c.http.R().SetContext(ctx).Get(c.warmupURL)
	if err != nil {
		return fmt.Errorf("%w: exchange warmup: %v", models.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: exchange warmup: http %d",
			models.ErrProviderUnavailable, resp.StatusCode())
	}
	c.warmed = true
	return nil
}

// parsePrice reads the endpoint's string prices, which use "-" for
// missing and thousands separators above 1000.
func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// firstLevel takes the best level of an underscore-joined book side.
func firstLevel(s string) float64 {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i]
	}
	return parsePrice(s)
}

// dashDate converts YYYYMMDD to YYYY-MM-DD.
func dashDate(s string) string {
	if len(s) != 8 {
		return s
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}
