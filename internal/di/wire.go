//go:build wireinject
// +build wireinject

package di

import (
	"BreadthPulse/pkg/config"
	"BreadthPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Data sources
		ProvideFinMindClient,
		ProvideQuoteChain,
		ProvideSampleRepo,
		ProvideEventSinks,

		// Core
		ProvideCalendar,
		ProvideSelector,
		ProvideStore,
		ProvideAlertMachine,
		ProvideAggregator,
		ProvidePoller,
		ProvideEngine,

		// Surface
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
