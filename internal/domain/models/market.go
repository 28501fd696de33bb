package models

// Price fields a Quote can be resolved from, in preference order.
const (
	FieldTrade   = "trade"
	FieldAuction = "auction"
	FieldBid     = "bid"
	FieldAsk     = "ask"
)

// Bar is one daily OHLCV record. Date is YYYY-MM-DD.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Provenance records which provider and which order-book field produced
// a quote's price.
type Provenance struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
}

// Quote is one live price observation for a symbol.
type Quote struct {
	Symbol     string     `json:"symbol"`
	Price      float64    `json:"price"`
	Date       string     `json:"date"` // trading day the price belongs to
	Provenance Provenance `json:"provenance"`
}

// MarketRow is one row of a full-market daily table.
type MarketRow struct {
	Symbol string  `json:"symbol"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// ResolvePrice picks a usable reference price from order-book fields:
// last trade, then indicative auction, then best bid, then best ask.
// Names locked at a daily limit legitimately have no trade price but
// still carry a one-sided book, which is why bid/ask participate.
func ResolvePrice(trade, auction, bid, ask float64) (float64, string, bool) {
	switch {
	case trade > 0:
		return trade, FieldTrade, true
	case auction > 0:
		return auction, FieldAuction, true
	case bid > 0:
		return bid, FieldBid, true
	case ask > 0:
		return ask, FieldAsk, true
	}
	return 0, "", false
}
