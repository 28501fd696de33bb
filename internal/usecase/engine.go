package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"BreadthPulse/internal/alert"
	"BreadthPulse/internal/domain/models"
	"BreadthPulse/internal/store"
	"BreadthPulse/pkg/logger"
)

// ErrPollInFlight is returned when a poll is requested while one is
// already running. Cycles never overlap.
var ErrPollInFlight = errors.New("poll already in flight")

// Engine is the long-lived facade over the poll pipeline. It serializes
// cycles, keeps the last result for the read side and exposes the store
// and alert state as snapshots.
type Engine struct {
	poller  *Poller
	store   *store.Store
	machine *alert.Machine
	log     *logger.Logger

	mu       sync.RWMutex
	latest   *models.PollResult
	lastErr  error
	lastRun  time.Time
	inFlight bool
}

// NewEngine creates the engine.
func NewEngine(poller *Poller, st *store.Store, machine *alert.Machine, log *logger.Logger) *Engine {
	return &Engine{poller: poller, store: st, machine: machine, log: log}
}

// Poll runs one cycle unless one is already running.
func (e *Engine) Poll(ctx context.Context) (*models.PollResult, error) {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrPollInFlight
	}
	e.inFlight = true
	e.mu.Unlock()

	result, err := e.poller.Run(ctx)

	e.mu.Lock()
	e.inFlight = false
	e.lastRun = time.Now()
	e.lastErr = err
	if err == nil {
		e.latest = result
	}
	e.mu.Unlock()

	if err != nil && e.log != nil && !errors.Is(err, context.Canceled) {
		e.log.Error("poll cycle failed", logger.Error(err))
	}
	return result, err
}

// Latest returns the most recent successful result.
func (e *Engine) Latest() (*models.PollResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latest == nil {
		return nil, false
	}
	return e.latest, true
}

// Status reports the outcome of the last attempt.
func (e *Engine) Status() (lastRun time.Time, lastErr error, inFlight bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRun, e.lastErr, e.inFlight
}

// Samples returns the recorded intraday log for a date.
func (e *Engine) Samples(date string) []models.BreadthSample {
	return e.store.SamplesFor(date)
}

// AlertState snapshots the current day's alert machine.
func (e *Engine) AlertState() (alert.State, bool) {
	return e.machine.Snapshot()
}
