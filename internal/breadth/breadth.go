package breadth

import (
	"fmt"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/util"
)

// Evaluation is one symbol's above-MA verdict for an evaluation date.
type Evaluation struct {
	Pass  bool
	Close float64
	MA    float64
}

// Evaluate decides whether a series closes above its MA5 on evalDate.
//
// The series must hold at least MAWindow bars ending on evalDate.
// lagDays > 0 relaxes the end-date requirement by up to that many
// calendar days and treats the last available bar as representative;
// this is used only for the previous-trading-day computation, where
// provider update delay is routine. A series that still does not qualify
// is excluded from both numerator and denominator via
// ErrInsufficientHistory.
func Evaluate(bars []models.Bar, evalDate string, lagDays int) (Evaluation, error) {
	bars = TrimTo(bars, evalDate)
	if len(bars) < MAWindow {
		return Evaluation{}, fmt.Errorf("%w: %d bars up to %s", models.ErrInsufficientHistory, len(bars), evalDate)
	}

	last := bars[len(bars)-1]
	if last.Date != evalDate {
		if lagDays <= 0 || !withinLag(last.Date, evalDate, lagDays) {
			return Evaluation{}, fmt.Errorf("%w: series ends %s, want %s", models.ErrInsufficientHistory, last.Date, evalDate)
		}
	}

	ma, ok := MA(bars, MAWindow)
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %d bars", models.ErrInsufficientHistory, len(bars))
	}
	return Evaluation{Pass: last.Close > ma, Close: last.Close, MA: ma}, nil
}

// Tally aggregates per-symbol evaluations into hit/valid counts.
type Tally struct {
	Hit   int
	Valid int
}

// Add counts one evaluated symbol.
func (t *Tally) Add(pass bool) {
	t.Valid++
	if pass {
		t.Hit++
	}
}

// Stat renders the tally as a breadth statistic. Ratio is 0 when no
// symbol qualified.
func (t Tally) Stat() models.BreadthStat {
	s := models.BreadthStat{Hit: t.Hit, Valid: t.Valid}
	if t.Valid > 0 {
		s.Ratio = float64(t.Hit) / float64(t.Valid)
	}
	return s
}

func withinLag(last, eval string, lagDays int) bool {
	lt, ok1 := util.ParseDate(last)
	et, ok2 := util.ParseDate(eval)
	if !ok1 || !ok2 || lt.After(et) {
		return false
	}
	return et.Sub(lt).Hours() <= float64(lagDays)*24
}
