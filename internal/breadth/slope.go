package breadth

import (
	"BreadthPulse/internal/domain/models"
)

// IndexSlope computes the benchmark moving-average slope: MA5 of the
// spliced series ending at targetDate minus MA5 of the history-only
// series ending at prevDate. Only the sign matters downstream.
//
// When the live index quote is missing the spliced series simply ends
// wherever history ends, mirroring the engine's rule that nothing is
// fabricated; the slope then reflects the freshest data available.
// The slope stays zero unless both windows resolved, so a half-built
// series can never fake a direction.
func IndexSlope(history []models.Bar, quote *models.Quote, targetDate, prevDate string) models.IndexSlope {
	var out models.IndexSlope
	var curOK, prevOK bool

	spliced := Synthesize(history, quote, targetDate)
	if ma, ok := MA(spliced, MAWindow); ok {
		out.MA5 = ma
		curOK = true
	}
	if len(spliced) > 0 {
		out.Level = spliced[len(spliced)-1].Close
	}

	prev := TrimTo(history, prevDate)
	if ma, ok := MA(prev, MAWindow); ok {
		out.PrevMA5 = ma
		prevOK = true
	}
	if len(prev) > 0 {
		out.PrevClose = prev[len(prev)-1].Close
	}

	if curOK && prevOK {
		out.Slope = out.MA5 - out.PrevMA5
	}
	if out.PrevClose > 0 && out.Level > 0 {
		out.ChangePct = (out.Level - out.PrevClose) / out.PrevClose * 100
	}
	return out
}
