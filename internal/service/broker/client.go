package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/logger"
)

// Config holds broker feed settings.
type Config struct {
	URL             string
	Token           string
	SnapshotTimeout time.Duration
}

// Client takes one snapshot pass over a broker's WebSocket quote feed.
// It dials per call, subscribes the requested symbols, collects one
// frame per symbol and disconnects. The feed is the only chain member
// that exposes the full order-book fields, so it sits first.
type Client struct {
	cfg Config
	log *logger.Logger
}

// NewClient creates a broker snapshot client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = 15 * time.Second
	}
	return &Client{cfg: cfg, log: log}
}

// Name implements QuoteProvider.
func (c *Client) Name() string { return "broker" }

type wsQuote struct {
	Symbol  string  `json:"symbol"`
	Trade   float64 `json:"trade_price"`
	Auction float64 `json:"auction_price"`
	Bid     float64 `json:"bid_price"`
	Ask     float64 `json:"ask_price"`
	Date    string  `json:"date"` // YYYY-MM-DD
}

type wsFrame struct {
	Type string  `json:"type"`
	Data wsQuote `json:"data"`
}

// FetchQuotes dials the feed and reads until every symbol answered or
// the snapshot deadline passed. Missing credentials or a failed dial
// disqualify the provider so the chain can move on.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string, targetDate string) (map[string]models.Quote, error) {
	if c.cfg.Token == "" {
		return nil, fmt.Errorf("%w: broker: no token configured", models.ErrProviderUnavailable)
	}
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("%w: broker: no url configured", models.ErrProviderUnavailable)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.SnapshotTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: broker dial: %v", models.ErrProviderUnavailable, err)
	}
	defer conn.Close()

	sub := map[string]interface{}{"type": "subscribe", "symbols": symbols}
	if err := conn.WriteJSON(sub); err != nil {
		return nil, fmt.Errorf("%w: broker subscribe: %v", models.ErrProviderUnavailable, err)
	}

	deadline := time.Now().Add(c.cfg.SnapshotTimeout)
	_ = conn.SetReadDeadline(deadline)

	quotes := make(map[string]models.Quote, len(symbols))
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	for len(quotes) < len(wanted) {
		select {
		case <-ctx.Done():
			return quotes, nil
		default:
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			// Timeout with partial coverage is a normal outcome.
			break
		}
		var frame wsFrame
		if err := json.Unmarshal(b, &frame); err != nil || frame.Type != "quote" {
			continue
		}
		q := frame.Data
		if !wanted[q.Symbol] || q.Date != targetDate {
			continue
		}
		price, field, ok := models.ResolvePrice(q.Trade, q.Auction, q.Bid, q.Ask)
		if !ok {
			continue
		}
		quotes[q.Symbol] = models.Quote{
			Symbol:     q.Symbol,
			Price:      price,
			Date:       q.Date,
			Provenance: models.Provenance{Provider: c.Name(), Field: field},
		}
	}

	if c.log != nil {
		c.log.Debug("broker snapshot done",
			logger.Int("requested", len(symbols)),
			logger.Int("answered", len(quotes)))
	}
	return quotes, nil
}
