package alert

import (
	"fmt"
	"sync"
	"time"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/internal/store"
	"BreadthPulse/pkg/util"
)

// Config holds the alerting thresholds.
type Config struct {
	HotThreshold        float64
	ColdThreshold       float64
	RapidWindow         time.Duration // how far back the comparison sample sits
	RapidTolerance      time.Duration // acceptable slack around that point
	RapidThreshold      float64       // |Δratio| that counts as rapid
	BaselineMinCoverage int           // valid-symbol floor for the opening baseline
	TrendDeviation      float64       // distance from baseline that locks the trend
	ReversalThreshold   float64       // pullback/bounce distance from the running extreme
}

// State is the per-trading-day alert state. It is the only long-lived
// mutable object in the core and is owned exclusively by the Machine.
type State struct {
	Date            string   `json:"date"`
	LastZone        string   `json:"last_zone"`
	LastRapidAnchor string   `json:"last_rapid_anchor,omitempty"`
	Baseline        *float64 `json:"baseline,omitempty"`
	BaselineTime    string   `json:"baseline_time,omitempty"`
	Trend           string   `json:"trend"`
	RunMax          float64  `json:"run_max"`
	RunMin          float64  `json:"run_min"`
	PullbackLatched bool     `json:"pullback_latched"`
	BounceLatched   bool     `json:"bounce_latched"`
}

// Machine is the multi-signal alert detector. The poll pipeline is the
// only writer; the lock exists so read-side snapshots can run while a
// cycle is evaluating.
type Machine struct {
	cfg Config
	st  *store.Store

	mu    sync.Mutex
	state *State
}

// NewMachine creates an alert machine reading history from st.
func NewMachine(cfg Config, st *store.Store) *Machine {
	return &Machine{cfg: cfg, st: st}
}

// Snapshot returns a copy of the current day's state.
func (m *Machine) Snapshot() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, false
	}
	s := *m.state
	if m.state.Baseline != nil {
		b := *m.state.Baseline
		s.Baseline = &b
	}
	return s, true
}

// Evaluate runs the ordered transition rules against one new sample and
// returns the emitted events. Crossing a date boundary resets the whole
// state: zone, rapid anchor, baseline, trend lock, running extremes, and
// both reversal latches.
func (m *Machine) Evaluate(sample models.BreadthSample, slope float64) []models.AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || m.state.Date != sample.Date {
		m.state = &State{
			Date:     sample.Date,
			LastZone: models.ZoneNormal,
			Trend:    models.TrendNone,
			RunMax:   sample.Ratio,
			RunMin:   sample.Ratio,
		}
	}
	st := m.state

	var events []models.AlertEvent
	emit := func(kind, msg string, ctxVals map[string]float64) {
		events = append(events, models.AlertEvent{
			Type:    kind,
			Date:    sample.Date,
			Time:    sample.Time,
			Message: msg,
			Context: ctxVals,
		})
	}

	// 1. Zone crossing.
	zone := m.zoneOf(sample.Ratio)
	if zone != st.LastZone {
		emit(models.EventZoneChange,
			fmt.Sprintf("breadth moved %s -> %s at %.1f%%", st.LastZone, zone, sample.Ratio*100),
			map[string]float64{"ratio": sample.Ratio})
		st.LastZone = zone
	}

	// 2. Rapid change vs. a sample roughly RapidWindow ago.
	if anchor, ok := m.rapidAnchor(sample); ok && anchor.Time != st.LastRapidAnchor {
		delta := sample.Ratio - anchor.Ratio
		if delta >= m.cfg.RapidThreshold || -delta >= m.cfg.RapidThreshold {
			emit(models.EventRapidChange,
				fmt.Sprintf("breadth moved %+.1fpp since %s", delta*100, anchor.Time),
				map[string]float64{"ratio": sample.Ratio, "anchor_ratio": anchor.Ratio, "delta": delta})
			st.LastRapidAnchor = anchor.Time
		}
	}

	// 3. Opening baseline, gated on representative coverage.
	if st.Baseline == nil && sample.ValidCount >= m.cfg.BaselineMinCoverage {
		b := sample.Ratio
		st.Baseline = &b
		st.BaselineTime = sample.Time
	}

	// 4. One-way trend lock.
	if st.Baseline != nil && st.Trend == models.TrendNone {
		switch {
		case sample.Ratio >= *st.Baseline+m.cfg.TrendDeviation:
			st.Trend = models.TrendUp
		case sample.Ratio <= *st.Baseline-m.cfg.TrendDeviation:
			st.Trend = models.TrendDown
		}
		if st.Trend != models.TrendNone {
			emit(models.EventTrendLocked,
				fmt.Sprintf("intraday trend locked %s (baseline %.1f%%)", st.Trend, *st.Baseline*100),
				map[string]float64{"ratio": sample.Ratio, "baseline": *st.Baseline})
		}
	}

	// 5. Reversals off the running extremes.
	if sample.Ratio > st.RunMax {
		st.RunMax = sample.Ratio
	}
	if sample.Ratio < st.RunMin {
		st.RunMin = sample.Ratio
	}

	if sample.Ratio <= st.RunMax-m.cfg.ReversalThreshold {
		if !st.PullbackLatched && st.Trend == models.TrendUp {
			st.PullbackLatched = true
			emit(models.EventPullbackFromHigh,
				pullbackMessage(slope, st.RunMax, sample.Ratio),
				map[string]float64{"ratio": sample.Ratio, "run_max": st.RunMax, "slope": slope})
		}
	} else {
		st.PullbackLatched = false
	}

	if sample.Ratio >= st.RunMin+m.cfg.ReversalThreshold {
		if !st.BounceLatched && st.Trend == models.TrendDown {
			st.BounceLatched = true
			emit(models.EventBounceFromLow,
				bounceMessage(slope, st.RunMin, sample.Ratio),
				map[string]float64{"ratio": sample.Ratio, "run_min": st.RunMin, "slope": slope})
		}
	} else {
		st.BounceLatched = false
	}

	return events
}

func (m *Machine) zoneOf(ratio float64) string {
	switch {
	case ratio >= m.cfg.HotThreshold:
		return models.ZoneHot
	case ratio <= m.cfg.ColdThreshold:
		return models.ZoneCold
	default:
		return models.ZoneNormal
	}
}

func (m *Machine) rapidAnchor(sample models.BreadthSample) (models.BreadthSample, bool) {
	if m.st == nil || m.cfg.RapidWindow <= 0 {
		return models.BreadthSample{}, false
	}
	cur := util.MinuteOf(sample.Time)
	if cur < 0 {
		return models.BreadthSample{}, false
	}
	target := cur - int(m.cfg.RapidWindow.Minutes())
	if target < 0 {
		return models.BreadthSample{}, false
	}
	tol := int(m.cfg.RapidTolerance.Minutes())
	if tol < 1 {
		tol = 1
	}
	return m.st.NearestAround(sample.Date, target, tol)
}

// The slope sign and the locked trend jointly select how a reversal
// reads: with a rising index MA a dip off the breadth high is an
// expected entry window, with a falling one it is exhaustion.
func pullbackMessage(slope, runMax, ratio float64) string {
	if slope > 0 {
		return fmt.Sprintf("pullback from high %.1f%% -> %.1f%% in rising regime (entry dip)", runMax*100, ratio*100)
	}
	return fmt.Sprintf("pullback from high %.1f%% -> %.1f%% in falling regime (exhaustion cue)", runMax*100, ratio*100)
}

func bounceMessage(slope, runMin, ratio float64) string {
	if slope < 0 {
		return fmt.Sprintf("bounce from low %.1f%% -> %.1f%% in falling regime (relief move)", runMin*100, ratio*100)
	}
	return fmt.Sprintf("bounce from low %.1f%% -> %.1f%% in rising regime (recovery cue)", runMin*100, ratio*100)
}
