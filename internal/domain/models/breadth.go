package models

// BreadthSample is one persisted breadth observation.
type BreadthSample struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	Time           string  `json:"time"` // HH:MM, truncated to sampling granularity
	Ratio          float64 `json:"ratio"`
	HitCount       int     `json:"hit_count"`
	ValidCount     int     `json:"valid_count"`
	UniverseSize   int     `json:"universe_size"`
	IndexChangePct float64 `json:"index_change_pct"`
	IndexLevel     float64 `json:"index_level"`
	IndexPrevClose float64 `json:"index_prev_close"`
}

// BreadthStat aggregates per-symbol pass/fail counts for one evaluation day.
type BreadthStat struct {
	Hit   int     `json:"hit"`
	Valid int     `json:"valid"`
	Ratio float64 `json:"ratio"`
}

// IndexSlope is the benchmark moving-average slope for the current poll.
type IndexSlope struct {
	MA5       float64 `json:"ma5"`
	PrevMA5   float64 `json:"prev_ma5"`
	Slope     float64 `json:"slope"`
	Level     float64 `json:"level"`
	PrevClose float64 `json:"prev_close"`
	ChangePct float64 `json:"change_pct"`
}

// RankedSymbol is one universe member with its turnover ranking.
type RankedSymbol struct {
	Rank          int     `json:"rank"`
	Symbol        string  `json:"symbol"`
	Close         float64 `json:"close"`
	TurnoverMillM float64 `json:"turnover_m"` // millions of quote currency
}

// Universe is the ranked candidate list for a baseline day, fixed once
// resolved.
type Universe struct {
	BaselineDate string         `json:"baseline_date"`
	Members      []RankedSymbol `json:"members"`
}

// Symbols returns the member codes in rank order.
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.Members))
	for i, m := range u.Members {
		out[i] = m.Symbol
	}
	return out
}

// SymbolDetail is one row of the per-symbol checklist carried on a poll
// result for display.
type SymbolDetail struct {
	Rank       int        `json:"rank"`
	Symbol     string     `json:"symbol"`
	Close      float64    `json:"close"`
	TurnoverM  float64    `json:"turnover_m"`
	Included   bool       `json:"included"`
	AboveMA5   bool       `json:"above_ma5"`
	Note       string     `json:"note,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
}

// PollResult is everything one poll cycle produces for the presentation
// and notification layers.
type PollResult struct {
	Date         string         `json:"date"`
	PrevDate     string         `json:"prev_date"`
	BaselineDate string         `json:"baseline_date"` // universe provenance
	SessionOpen  bool           `json:"session_open"`
	Today        BreadthStat    `json:"today"`
	Prev         BreadthStat    `json:"prev"`
	Index        IndexSlope     `json:"index"`
	Sample       BreadthSample  `json:"sample"`
	Details      []SymbolDetail `json:"details,omitempty"`
	Events       []AlertEvent   `json:"events,omitempty"`

	// Original entry rule: breadth over threshold two days running and a
	// rising index MA5.
	BreadthOK bool `json:"breadth_ok"`
	SlopeOK   bool `json:"slope_ok"`
	EntryOK   bool `json:"entry_ok"`
}
