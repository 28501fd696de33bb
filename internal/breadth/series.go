package breadth

import (
	"BreadthPulse/internal/domain/models"
)

// MAWindow is the moving-average window in daily bars.
const MAWindow = 5

// Synthesize splices a live quote onto a historical bar series for the
// target day without mutating the input:
//
//   - history already reaches targetDate: overwrite that close with the
//     live price when a quote exists (late-arriving history lost the race
//     against the live feed), otherwise keep it.
//   - history ends before targetDate and a quote exists: append one bar.
//   - no quote and history is behind: return the series as-is. A price is
//     never fabricated.
//
// The result is stable under repeated application, so polling the same
// inputs twice cannot duplicate a date or drift a close.
func Synthesize(history []models.Bar, quote *models.Quote, targetDate string) []models.Bar {
	if len(history) == 0 {
		if quote == nil {
			return history
		}
		return []models.Bar{{Date: targetDate, Open: quote.Price, Close: quote.Price}}
	}

	last := history[len(history)-1]
	switch {
	case last.Date == targetDate:
		if quote == nil {
			return history
		}
		out := make([]models.Bar, len(history))
		copy(out, history)
		out[len(out)-1].Close = quote.Price
		return out
	case last.Date < targetDate && quote != nil:
		out := make([]models.Bar, len(history), len(history)+1)
		copy(out, history)
		return append(out, models.Bar{Date: targetDate, Open: quote.Price, Close: quote.Price})
	default:
		return history
	}
}

// MA returns the mean of the last n closes. ok is false when the series
// is shorter than n.
func MA(bars []models.Bar, n int) (float64, bool) {
	if n <= 0 || len(bars) < n {
		return 0, false
	}
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Close
	}
	return sum / float64(n), true
}

// TrimTo returns the prefix of bars whose dates are <= date.
func TrimTo(bars []models.Bar, date string) []models.Bar {
	i := len(bars)
	for i > 0 && bars[i-1].Date > date {
		i--
	}
	return bars[:i]
}
