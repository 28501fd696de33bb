package notify

import (
	"context"

	"BreadthPulse/internal/domain/models"
	"BreadthPulse/pkg/logger"
)

// LogSink writes alert events to the structured log. It always rides
// alongside the external sinks so every signal leaves a local trace.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a log-backed event sink.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, ev models.AlertEvent) error {
	s.log.Info("alert",
		logger.String("type", ev.Type),
		logger.String("date", ev.Date),
		logger.String("time", ev.Time),
		logger.String("message", ev.Message),
		logger.Any("context", ev.Context))
	return nil
}

func (s *LogSink) Close() error { return nil }
