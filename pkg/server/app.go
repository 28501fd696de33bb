package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/internal/usecase"
	pkgch "BreadthPulse/pkg/clickhouse"
	"BreadthPulse/pkg/config"
	"BreadthPulse/pkg/httpx"
	applogger "BreadthPulse/pkg/logger"
)

// App encapsulates the application lifecycle: the poll scheduler, the
// HTTP read side and the infrastructure clients that need a clean stop.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	engine     *usecase.Engine
	handler    httpx.Handler
	httpServer *httpx.Server
	chClient   *pkgch.Client
	sinks      []domrepo.EventSink
}

// New creates an App with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	handler httpx.Handler,
	chClient *pkgch.Client,
	sinks []domrepo.EventSink,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		handler:  handler,
		chClient: chClient,
		sinks:    sinks,
	}
}

// Run starts the scheduler and the HTTP server and blocks until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = httpx.NewServer(a.handler,
		httpx.WithPort(a.cfg.Server.Port),
		httpx.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	go a.schedule(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// schedule runs one cycle immediately and then one per interval. A
// cycle still running when the tick fires is left alone; the tick is
// dropped, not queued.
func (a *App) schedule(ctx context.Context) {
	a.poll(ctx)

	ticker := time.NewTicker(a.cfg.Poll.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

func (a *App) poll(ctx context.Context) {
	_, err := a.engine.Poll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrPollInFlight):
		a.log.Warn("poll tick dropped, previous cycle still running")
	case errors.Is(err, context.Canceled):
	default:
		a.log.Error("scheduled poll failed", applogger.Error(err))
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	for _, sink := range a.sinks {
		if err := sink.Close(); err != nil {
			a.log.Warn("event sink close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
