package store

import (
	"context"
	"sync"

	"BreadthPulse/internal/domain/models"
	drepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/pkg/logger"
	"BreadthPulse/pkg/util"
)

// Store is the breadth time series: an in-memory per-day log,
// authoritative within a session, with write-through persistence.
// Persistence failures are logged and never surfaced; display and
// alerting must not depend on a healthy database.
//
// Only the poll pipeline writes; the HTTP surface reads concurrently.
type Store struct {
	mu             sync.RWMutex
	days           map[string][]models.BreadthSample
	granularityMin int

	repo drepo.SampleRepo // optional
	log  *logger.Logger
}

// New creates a Store. granularityMin is the sampling granularity in
// minutes used to deduplicate back-to-back polls.
func New(granularityMin int, repo drepo.SampleRepo, log *logger.Logger) *Store {
	if granularityMin < 1 {
		granularityMin = 1
	}
	return &Store{
		days:           make(map[string][]models.BreadthSample),
		granularityMin: granularityMin,
		repo:           repo,
		log:            log,
	}
}

// Clock floors an HH:MM clock onto the store's sampling grid. Callers
// that compare their own clock against stored times must go through
// this so both sides sit on the same grid.
func (s *Store) Clock(clock string) string {
	return util.TruncateClock(clock, s.granularityMin)
}

// Append records a sample under the write rules:
//
//   - new date: start that day's log;
//   - same date, session open: append only when the truncated time-of-day
//     differs from the day's last record;
//   - same date, session closed: replace the whole day with this single
//     finalized record (the post-close recompute supersedes intraday
//     samples).
//
// Returns true when the sample was recorded.
func (s *Store) Append(ctx context.Context, sample models.BreadthSample, sessionOpen bool) bool {
	sample.Time = util.TruncateClock(sample.Time, s.granularityMin)

	s.mu.Lock()
	day := s.days[sample.Date]

	if !sessionOpen {
		s.days[sample.Date] = []models.BreadthSample{sample}
		s.mu.Unlock()
		s.persistFinal(ctx, sample)
		return true
	}

	if n := len(day); n > 0 && day[n-1].Time == sample.Time {
		s.mu.Unlock()
		return false
	}
	s.days[sample.Date] = append(day, sample)
	s.mu.Unlock()

	s.persist(ctx, sample)
	return true
}

// SamplesFor returns a copy of the day's samples in chronological order.
func (s *Store) SamplesFor(date string) []models.BreadthSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := s.days[date]
	out := make([]models.BreadthSample, len(day))
	copy(out, day)
	return out
}

// Latest returns the day's most recent sample.
func (s *Store) Latest(date string) (models.BreadthSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := s.days[date]
	if len(day) == 0 {
		return models.BreadthSample{}, false
	}
	return day[len(day)-1], true
}

// FirstWithCoverage returns the day's first sample whose valid-symbol
// count reaches minCoverage. Used as the opening baseline.
func (s *Store) FirstWithCoverage(date string, minCoverage int) (models.BreadthSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sm := range s.days[date] {
		if sm.ValidCount >= minCoverage {
			return sm, true
		}
	}
	return models.BreadthSample{}, false
}

// Range returns the day's max and min ratio so far.
func (s *Store) Range(date string) (max, min float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := s.days[date]
	if len(day) == 0 {
		return 0, 0, false
	}
	max, min = day[0].Ratio, day[0].Ratio
	for _, sm := range day[1:] {
		if sm.Ratio > max {
			max = sm.Ratio
		}
		if sm.Ratio < min {
			min = sm.Ratio
		}
	}
	return max, min, true
}

// NearestAround finds the day's sample whose time-of-day is closest to
// targetMin (minutes since midnight) within tolMin minutes.
func (s *Store) NearestAround(date string, targetMin, tolMin int) (models.BreadthSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1
	bestDist := tolMin + 1
	day := s.days[date]
	for i, sm := range day {
		m := util.MinuteOf(sm.Time)
		if m < 0 {
			continue
		}
		dist := m - targetMin
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return models.BreadthSample{}, false
	}
	return day[best], true
}

func (s *Store) persist(ctx context.Context, sample models.BreadthSample) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Insert(ctx, sample); err != nil && s.log != nil {
		s.log.Error("sample persist failed",
			logger.String("date", sample.Date),
			logger.String("time", sample.Time),
			logger.Error(err))
	}
}

func (s *Store) persistFinal(ctx context.Context, sample models.BreadthSample) {
	if s.repo == nil {
		return
	}
	if err := s.repo.ReplaceDay(ctx, sample.Date, sample); err != nil && s.log != nil {
		s.log.Error("day finalize persist failed",
			logger.String("date", sample.Date),
			logger.Error(err))
	}
}
