//go:build wireinject
// +build wireinject

package di

import (
	"EdgeDesk/pkg/config"
	"EdgeDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisClient,

		// Repositories
		ProvideTradeArchive,
		ProvideEventPublisher,
		ProvideFlowHistory,
		ProvideFlowSource,
		ProvideTradeStore,

		// Realtime
		ProvideHub,
		ProvideFeedStream,
		ProvideStreamCollector,

		// Use cases
		ProvideFlowScanner,
		ProvideTradeLedger,
		ProvideArbitrageScanner,
		ProvideDashboardAggregator,

		// HTTP and application server
		ProvideEngineHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
