//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MandiPulse/pkg/config"
	"MandiPulse/pkg/server"
)

var engineSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,

	ProvidePriceSource,
	ProvidePriceStore,
	ProvideCache,
	ProvideSnapshotPublisher,

	ProvideHTTPClient,
	ProvideCEDASource,
	ProvideOrchestrator,
	ProvideForecastEngine,
	ProvideTrendClassifier,
	ProvideStabilityClassifier,
	ProvideAggregator,

	ProvideMarketInsights,
	ProvideMarketPrices,
)

// InitializeApp wires the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		engineSet,
		ProvideEndpointMetrics,
		ProvideRateLimiter,
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeEngine wires the use cases without the HTTP layer.
func InitializeEngine(cfg *config.Config) (*Engine, func(), error) {
	wire.Build(engineSet, ProvideEngine)
	return nil, nil, nil
}
