package models

import "errors"

// Error taxonomy. Per-symbol failures (stale quote, thin history) are
// contained at the symbol level; only universe- and calendar-level
// failures may abort a poll cycle, and the calendar one degrades to a
// synthesized fallback instead.
var (
	// ErrProviderUnavailable signals a network/auth failure of one quote
	// provider; the chain falls through to the next provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStaleQuote marks a quote whose date does not match the target
	// day or whose price is non-positive.
	ErrStaleQuote = errors.New("stale or missing quote")

	// ErrInsufficientHistory marks a symbol with too few usable bars.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrUniverseResolution means no baseline day yielded a usable ranked
	// list; the poll cycle returns no data and the caller retries later.
	ErrUniverseResolution = errors.New("universe resolution failed")

	// ErrNoCalendar means the trading calendar could not be resolved even
	// from the degraded weekday fallback.
	ErrNoCalendar = errors.New("trading calendar unavailable")
)
