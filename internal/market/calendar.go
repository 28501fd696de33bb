package market

import (
	"context"
	"sort"
	"time"

	"BreadthPulse/internal/domain/models"
	drepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/pkg/logger"
	"BreadthPulse/pkg/util"
)

// Calendar resolves the ordered list of recent trading days for the
// target market, including "today" while a session is running. Session
// timing is the single source of truth for whether today trades; live
// quote availability never participates in that decision.
type Calendar struct {
	history      drepo.HistoryProvider
	refSymbol    string
	loc          *time.Location
	openMin      int
	closeMin     int
	weekdays     map[time.Weekday]bool
	lookbackDays int
	fallbackN    int
	log          *logger.Logger

	now func() time.Time // overridable in tests
}

// CalendarConfig bundles Calendar construction parameters.
type CalendarConfig struct {
	ReferenceSymbol string
	Location        *time.Location
	OpenMinute      int // minutes since midnight, pre-open included
	CloseMinute     int
	Weekdays        map[time.Weekday]bool
	LookbackDays    int // calendar days of reference history to pull
	FallbackDays    int // synthesized weekdays when the feed is down
}

// NewCalendar creates a Calendar backed by the reference symbol's feed.
func NewCalendar(history drepo.HistoryProvider, cfg CalendarConfig, log *logger.Logger) *Calendar {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 20
	}
	if cfg.FallbackDays <= 0 {
		cfg.FallbackDays = 10
	}
	return &Calendar{
		history:      history,
		refSymbol:    cfg.ReferenceSymbol,
		loc:          cfg.Location,
		openMin:      cfg.OpenMinute,
		closeMin:     cfg.CloseMinute,
		weekdays:     cfg.Weekdays,
		lookbackDays: cfg.LookbackDays,
		fallbackN:    cfg.FallbackDays,
		log:          log,
		now:          time.Now,
	}
}

// TradingDays returns the ascending list of recent trading days. Today is
// appended when the localized clock is inside the session window on a
// trading weekday and today is strictly after the last historical date.
// A dead historical feed degrades to synthesized recent weekdays.
func (c *Calendar) TradingDays(ctx context.Context) ([]string, error) {
	now := c.now().In(c.loc)
	since := util.FormatDate(now.AddDate(0, 0, -c.lookbackDays))

	var dates []string
	bars, err := c.history.FetchHistory(ctx, c.refSymbol, since)
	if err == nil {
		dates = uniqueDates(bars)
	}
	if len(dates) == 0 {
		if c.log != nil {
			c.log.Warn("calendar feed unavailable, synthesizing weekdays",
				logger.String("symbol", c.refSymbol), logger.Error(err))
		}
		dates = util.RecentWeekdays(now, c.fallbackN, c.weekdays)
	}
	if len(dates) == 0 {
		return nil, models.ErrNoCalendar
	}

	today := util.FormatDate(now)
	if c.SessionOpen(now) && today > dates[len(dates)-1] {
		dates = append(dates, today)
	}

	return dates, nil
}

// SessionOpen reports whether t falls inside the configured session
// window on a trading weekday.
func (c *Calendar) SessionOpen(t time.Time) bool {
	t = t.In(c.loc)
	if !c.weekdays[t.Weekday()] {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= c.openMin && m <= c.closeMin
}

// AfterClose reports whether t is past the close on a trading weekday.
func (c *Calendar) AfterClose(t time.Time) bool {
	t = t.In(c.loc)
	if !c.weekdays[t.Weekday()] {
		return false
	}
	return t.Hour()*60+t.Minute() > c.closeMin
}

// Today returns the current date in the market timezone.
func (c *Calendar) Today() string {
	return util.FormatDate(c.now().In(c.loc))
}

// Now returns the current instant in the market timezone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func uniqueDates(bars []models.Bar) []string {
	seen := make(map[string]struct{}, len(bars))
	out := make([]string, 0, len(bars))
	for _, b := range bars {
		if b.Date == "" {
			continue
		}
		if _, ok := seen[b.Date]; ok {
			continue
		}
		seen[b.Date] = struct{}{}
		out = append(out, b.Date)
	}
	sort.Strings(out)
	return out
}
