package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"BreadthPulse/internal/usecase"
	"BreadthPulse/pkg/httpx"
	applogger "BreadthPulse/pkg/logger"
)

// BreadthHandler exposes the engine state over HTTP.
type BreadthHandler struct {
	engine *usecase.Engine
	l      *applogger.Logger
}

// NewBreadthHandler creates the handler.
func NewBreadthHandler(engine *usecase.Engine) *BreadthHandler {
	return &BreadthHandler{engine: engine}
}

// SetLogger injects a structured logger.
func (h *BreadthHandler) SetLogger(l *applogger.Logger) { h.l = l }

// RegisterRoutes implements httpx.Handler.
func (h *BreadthHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.GET("/breadth/latest", h.Latest)
	v1.GET("/breadth/history", h.History)
	v1.GET("/alerts/state", h.AlertState)
	v1.POST("/poll", h.TriggerPoll)
}

// Latest returns the most recent completed poll result.
func (h *BreadthHandler) Latest(c echo.Context) error {
	res, ok := h.engine.Latest()
	if !ok {
		return httpx.NotFoundResponse(c, "no completed poll yet")
	}
	return httpx.SuccessResponse(c, res)
}

type historyRequest struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Full bool   `query:"full" default:"false"` // include per-sample index levels
}

type historyResponse struct {
	Date    string      `json:"date"`
	Count   int         `json:"count"`
	Samples interface{} `json:"samples"`
}

// History returns the recorded intraday samples for a date, defaulting
// to the latest polled day.
func (h *BreadthHandler) History(c echo.Context) error {
	req := new(historyRequest)
	if verr := httpx.ReadAndValidateRequest(c, req); verr != nil {
		return httpx.BadRequestResponse(c, verr)
	}

	date := req.Date
	if date == "" {
		res, ok := h.engine.Latest()
		if !ok {
			return httpx.NotFoundResponse(c, "no completed poll yet")
		}
		date = res.Date
	}

	samples := h.engine.Samples(date)
	if len(samples) == 0 {
		return httpx.NotFoundResponse(c, "no samples for "+date)
	}
	if !req.Full {
		type slim struct {
			Time  string  `json:"time"`
			Ratio float64 `json:"ratio"`
			Valid int     `json:"valid_count"`
		}
		out := make([]slim, len(samples))
		for i, s := range samples {
			out[i] = slim{Time: s.Time, Ratio: s.Ratio, Valid: s.ValidCount}
		}
		return httpx.SuccessResponse(c, historyResponse{Date: date, Count: len(out), Samples: out})
	}
	return httpx.SuccessResponse(c, historyResponse{Date: date, Count: len(samples), Samples: samples})
}

// AlertState returns the current day's alert machine snapshot.
func (h *BreadthHandler) AlertState(c echo.Context) error {
	state, ok := h.engine.AlertState()
	if !ok {
		return httpx.NotFoundResponse(c, "no samples evaluated yet")
	}
	return httpx.SuccessResponse(c, state)
}

// TriggerPoll runs one on-demand cycle outside the scheduler.
func (h *BreadthHandler) TriggerPoll(c echo.Context) error {
	res, err := h.engine.Poll(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrPollInFlight) {
			return httpx.ConflictResponse(c, "poll already in flight")
		}
		if h.l != nil {
			h.l.Error("manual poll failed", applogger.Error(err))
		}
		return httpx.InternalServerErrorResponse(c)
	}
	return httpx.SuccessResponse(c, res)
}
