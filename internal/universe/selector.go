package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/internal/domain/repository"
	"BreadthPulse/pkg/cache"
	"BreadthPulse/pkg/logger"
)

// Config holds the selection parameters.
type Config struct {
	Size            int
	CodeLength      int
	ExcludePrefixes []string
	ExcludeSymbols  []string
	MinTableRows    int // below this the table is treated as a holiday stub
	CacheTTL        time.Duration
}

// Selector resolves the top-turnover universe for a baseline day. A
// resolved universe is cached per date so repeated polls within a day
// never re-rank.
type Selector struct {
	cfg    Config
	tables repository.MarketTableProvider
	cache  cache.Cache
	log    *logger.Logger
}

// NewSelector creates a selector over the given market-table source.
func NewSelector(cfg Config, tables repository.MarketTableProvider, c cache.Cache, log *logger.Logger) *Selector {
	if cfg.MinTableRows <= 0 {
		cfg.MinTableRows = 100
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Selector{cfg: cfg, tables: tables, cache: c, log: log}
}

// Resolve walks the candidate dates newest-first and returns the first
// one with a usable full-market table, ranked by turnover. Candidates
// are trading days already validated by the calendar; a table that is
// empty or suspiciously thin is skipped rather than trusted.
func (s *Selector) Resolve(ctx context.Context, candidates []string) (models.Universe, error) {
	var lastErr error
	for _, date := range candidates {
		if u, ok := s.fromCache(ctx, date); ok {
			return u, nil
		}
		rows, err := s.tables.FetchMarketTable(ctx, date)
		if err != nil {
			lastErr = err
			if s.log != nil {
				s.log.Warn("market table fetch failed",
					logger.String("date", date), logger.Error(err))
			}
			continue
		}
		if len(rows) < s.cfg.MinTableRows {
			if s.log != nil {
				s.log.Warn("market table too thin, trying earlier day",
					logger.String("date", date), logger.Int("rows", len(rows)))
			}
			continue
		}
		u := s.rank(date, rows)
		if len(u.Members) == 0 {
			continue
		}
		s.toCache(ctx, date, u)
		return u, nil
	}
	if lastErr != nil {
		return models.Universe{}, fmt.Errorf("%w: no candidate day yielded a table: %v",
			models.ErrUniverseResolution, lastErr)
	}
	return models.Universe{}, fmt.Errorf("%w: no candidate day yielded a table",
		models.ErrUniverseResolution)
}

// rank filters out non-common-stock codes and sorts the remainder by
// mean(high, low, close) * volume descending, keeping the top N.
func (s *Selector) rank(date string, rows []models.MarketRow) models.Universe {
	type scored struct {
		row      models.MarketRow
		turnover float64
	}
	kept := make([]scored, 0, len(rows))
	for _, r := range rows {
		if !s.eligible(r.Symbol) {
			continue
		}
		if r.Close <= 0 || r.Volume <= 0 {
			continue
		}
		avg := (r.High + r.Low + r.Close) / 3
		kept = append(kept, scored{row: r, turnover: avg * r.Volume})
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].turnover != kept[j].turnover {
			return kept[i].turnover > kept[j].turnover
		}
		return kept[i].row.Symbol < kept[j].row.Symbol
	})
	n := s.cfg.Size
	if n <= 0 || n > len(kept) {
		n = len(kept)
	}
	members := make([]models.RankedSymbol, n)
	for i := 0; i < n; i++ {
		members[i] = models.RankedSymbol{
			Rank:          i + 1,
			Symbol:        kept[i].row.Symbol,
			Close:         kept[i].row.Close,
			TurnoverMillM: kept[i].turnover / 1e6,
		}
	}
	return models.Universe{BaselineDate: date, Members: members}
}

func (s *Selector) eligible(symbol string) bool {
	for _, x := range s.cfg.ExcludeSymbols {
		if symbol == x {
			return false
		}
	}
	if s.cfg.CodeLength > 0 {
		if len(symbol) != s.cfg.CodeLength {
			return false
		}
		for _, r := range symbol {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	for _, p := range s.cfg.ExcludePrefixes {
		if strings.HasPrefix(symbol, p) {
			return false
		}
	}
	return true
}

func (s *Selector) fromCache(ctx context.Context, date string) (models.Universe, bool) {
	if s.cache == nil {
		return models.Universe{}, false
	}
	var u models.Universe
	ok, err := s.cache.Get(ctx, cacheKey(date), &u)
	if err != nil || !ok || len(u.Members) == 0 {
		return models.Universe{}, false
	}
	return u, true
}

func (s *Selector) toCache(ctx context.Context, date string, u models.Universe) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(date), u, s.cfg.CacheTTL); err != nil && s.log != nil {
		s.log.Warn("universe cache write failed",
			logger.String("date", date), logger.Error(err))
	}
}

func cacheKey(date string) string {
	return "universe:" + date
}
