package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BreadthPulse/internal/alert"
	"BreadthPulse/internal/breadth"
	"BreadthPulse/internal/domain/models"
	domrepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/internal/market"
	"BreadthPulse/internal/store"
	"BreadthPulse/internal/universe"
	"BreadthPulse/pkg/logger"
	"BreadthPulse/pkg/util"
)

// PollConfig holds the per-cycle parameters.
type PollConfig struct {
	IndexSymbol         string
	LookbackDays        int // calendar days of history per symbol
	Workers             int
	EntryThreshold      float64
	PrevDayLagTolerance int // accepted staleness of a series for prev-day math
	BaselineFallback    int // extra earlier days tried when a table is unusable
}

// Poller runs one full breadth cycle: resolve the trading days and the
// universe, collect quotes, evaluate every member against its MA, fold
// the tallies into a sample and feed the alert machine. The poller owns
// no state of its own; the store and the machine do.
type Poller struct {
	cfg      PollConfig
	cal      *market.Calendar
	selector *universe.Selector
	agg      *QuoteAggregator
	history  domrepo.HistoryProvider
	store    *store.Store
	machine  *alert.Machine
	sinks    []domrepo.EventSink
	metrics  domrepo.Metrics
	log      *logger.Logger
}

// NewPoller wires a poll pipeline.
func NewPoller(
	cfg PollConfig,
	cal *market.Calendar,
	selector *universe.Selector,
	agg *QuoteAggregator,
	history domrepo.HistoryProvider,
	st *store.Store,
	machine *alert.Machine,
	sinks []domrepo.EventSink,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Poller {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.BaselineFallback <= 0 {
		cfg.BaselineFallback = 1
	}
	return &Poller{
		cfg: cfg, cal: cal, selector: selector, agg: agg,
		history: history, store: st, machine: machine,
		sinks: sinks, metrics: metrics, log: log,
	}
}

type symbolOutcome struct {
	detail  models.SymbolDetail
	today   breadth.Evaluation
	prev    breadth.Evaluation
	inToday bool
	inPrev  bool
}

// Run executes one cycle. Cancellation aborts before any shared state
// is touched: a canceled cycle records nothing and emits nothing.
func (p *Poller) Run(ctx context.Context) (*models.PollResult, error) {
	started := time.Now()

	now := p.cal.Now()
	sessionOpen := p.cal.SessionOpen(now)

	days, err := p.cal.TradingDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("trading days: %w", err)
	}
	if len(days) < 3 {
		return nil, fmt.Errorf("%w: only %d trading days known", models.ErrNoCalendar, len(days))
	}
	evalDate := days[len(days)-1]
	prevDate := days[len(days)-2]

	// Today's full-market table only exists once the session settled, so
	// an intraday universe is always ranked off a finished day. The walk
	// starts at the previous session and may step back BaselineFallback
	// further days past holiday stubs.
	settled := p.cfg.BaselineFallback + 1
	candidates := make([]string, 0, settled+1)
	if p.cal.AfterClose(now) && evalDate == p.cal.Today() {
		candidates = append(candidates, evalDate)
	}
	for i := len(days) - 2; i >= 0 && settled > 0; i, settled = i-1, settled-1 {
		candidates = append(candidates, days[i])
	}
	uni, err := p.selector.Resolve(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	symbols := uni.Symbols()

	quotes := p.agg.Collect(ctx, symbols, evalDate)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sinceDate := util.FormatDate(now.AddDate(0, 0, -p.cfg.LookbackDays))
	outcomes := p.evaluateUniverse(ctx, uni, quotes, evalDate, prevDate, sinceDate)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var todayTally, prevTally breadth.Tally
	details := make([]models.SymbolDetail, 0, len(outcomes))
	for _, o := range outcomes {
		details = append(details, o.detail)
		if o.inToday {
			todayTally.Add(o.today.Pass)
		}
		if o.inPrev {
			prevTally.Add(o.prev.Pass)
		}
	}
	todayStat := todayTally.Stat()
	prevStat := prevTally.Stat()

	slope := p.indexSlope(ctx, quotes, evalDate, prevDate, sinceDate)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// The sample clock sits on the store's sampling grid so the alert
	// machine compares like against like when it looks back at the log.
	sample := models.BreadthSample{
		Date:           evalDate,
		Time:           p.store.Clock(util.ClockOf(now)),
		Ratio:          todayStat.Ratio,
		HitCount:       todayStat.Hit,
		ValidCount:     todayStat.Valid,
		UniverseSize:   len(symbols),
		IndexChangePct: slope.ChangePct,
		IndexLevel:     slope.Level,
		IndexPrevClose: slope.PrevClose,
	}

	// Last gate before mutation.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var events []models.AlertEvent
	if p.store.Append(ctx, sample, sessionOpen) {
		events = p.machine.Evaluate(sample, slope.Slope)
		p.deliver(ctx, events)
	}

	if p.metrics != nil {
		p.metrics.RecordBreadth(evalDate, todayStat.Ratio)
		p.metrics.RecordCoverage(todayStat.Valid)
		p.metrics.RecordLatency("poll", time.Since(started).Seconds())
	}
	if p.log != nil {
		p.log.Info("poll cycle done",
			logger.String("date", evalDate),
			logger.Float64("ratio", todayStat.Ratio),
			logger.Int("valid", todayStat.Valid),
			logger.Int("universe", len(symbols)),
			logger.Int("events", len(events)),
			logger.Duration("elapsed", time.Since(started)))
	}

	breadthOK := todayStat.Ratio >= p.cfg.EntryThreshold && prevStat.Ratio >= p.cfg.EntryThreshold
	slopeOK := slope.Slope > 0

	return &models.PollResult{
		Date:         evalDate,
		PrevDate:     prevDate,
		BaselineDate: uni.BaselineDate,
		SessionOpen:  sessionOpen,
		Today:        todayStat,
		Prev:         prevStat,
		Index:        slope,
		Sample:       sample,
		Details:      details,
		Events:       events,
		BreadthOK:    breadthOK,
		SlopeOK:      slopeOK,
		EntryOK:      breadthOK && slopeOK,
	}, nil
}

// evaluateUniverse fans the per-symbol history fetch and MA checks out
// over a bounded worker pool. Results land in a fixed slot per member,
// so rank order survives the concurrency.
func (p *Poller) evaluateUniverse(ctx context.Context, uni models.Universe, quotes map[string]models.Quote, evalDate, prevDate, sinceDate string) []symbolOutcome {
	outcomes := make([]symbolOutcome, len(uni.Members))
	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup

	for i, member := range uni.Members {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, member models.RankedSymbol) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = p.evaluateSymbol(ctx, member, quotes, evalDate, prevDate, sinceDate)
		}(i, member)
	}
	wg.Wait()
	return outcomes
}

func (p *Poller) evaluateSymbol(ctx context.Context, member models.RankedSymbol, quotes map[string]models.Quote, evalDate, prevDate, sinceDate string) symbolOutcome {
	out := symbolOutcome{detail: models.SymbolDetail{
		Rank:      member.Rank,
		Symbol:    member.Symbol,
		Close:     member.Close,
		TurnoverM: member.TurnoverMillM,
	}}

	history, err := p.history.FetchHistory(ctx, member.Symbol, sinceDate)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("history_fetch")
		}
		out.detail.Note = "history unavailable"
		return out
	}

	var quote *models.Quote
	if q, ok := quotes[member.Symbol]; ok {
		quote = &q
		out.detail.Close = q.Price
		out.detail.Provenance = q.Provenance
	}

	series := breadth.Synthesize(history, quote, evalDate)

	today, err := breadth.Evaluate(series, evalDate, 0)
	if err == nil {
		out.inToday = true
		out.today = today
		out.detail.Included = true
		out.detail.AboveMA5 = today.Pass
	} else {
		out.detail.Note = "insufficient history"
	}

	// Prev-day math runs on the raw history so a live quote can never
	// leak backwards.
	prev, err := breadth.Evaluate(breadth.TrimTo(history, prevDate), prevDate, p.cfg.PrevDayLagTolerance)
	if err == nil {
		out.inPrev = true
		out.prev = prev
	}

	return out
}

// indexSlope builds the benchmark MA comparison. The index rides the
// same quote chain as the stocks; with no live print the slope falls
// back to settled closes only.
func (p *Poller) indexSlope(ctx context.Context, quotes map[string]models.Quote, evalDate, prevDate, sinceDate string) models.IndexSlope {
	history, err := p.history.FetchHistory(ctx, p.cfg.IndexSymbol, sinceDate)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("index_history")
		}
		if p.log != nil {
			p.log.Warn("index history unavailable",
				logger.String("symbol", p.cfg.IndexSymbol), logger.Error(err))
		}
		return models.IndexSlope{}
	}

	var quote *models.Quote
	if q, ok := quotes[p.cfg.IndexSymbol]; ok {
		quote = &q
	} else {
		got := p.agg.Collect(ctx, []string{p.cfg.IndexSymbol}, evalDate)
		if q, ok := got[p.cfg.IndexSymbol]; ok {
			quote = &q
		}
	}

	return breadth.IndexSlope(history, quote, evalDate, prevDate)
}

func (p *Poller) deliver(ctx context.Context, events []models.AlertEvent) {
	for _, ev := range events {
		if p.metrics != nil {
			p.metrics.RecordEvent(ev.Type)
		}
		for _, sink := range p.sinks {
			if err := sink.Deliver(ctx, ev); err != nil {
				if p.metrics != nil {
					p.metrics.RecordError("event_delivery")
				}
				if p.log != nil {
					p.log.Warn("event delivery failed",
						logger.String("type", ev.Type), logger.Error(err))
				}
			}
		}
	}
}
