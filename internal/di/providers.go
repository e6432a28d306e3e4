package di

import (
	"context"
	"fmt"
	"time"

	"EdgeDesk/internal/domain/repository"
	"EdgeDesk/internal/handler/api"
	"EdgeDesk/internal/handler/ws"
	internalrepo "EdgeDesk/internal/repository"
	"EdgeDesk/internal/service/flowfeed"
	"EdgeDesk/internal/service/ratelimit"
	"EdgeDesk/internal/service/stream"
	"EdgeDesk/internal/usecase"
	pkgch "EdgeDesk/pkg/clickhouse"
	"EdgeDesk/pkg/config"
	xhttp "EdgeDesk/pkg/http"
	pkgkafka "EdgeDesk/pkg/kafka"
	xlogger "EdgeDesk/pkg/logger"
	"EdgeDesk/pkg/metrics"
	"EdgeDesk/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	return xlogger.New(&xlogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the request admission limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse
// backend is selected, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.TradeArchiveSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideTradeArchive creates the closed-trade archive when ClickHouse is
// available, nil otherwise.
func ProvideTradeArchive(chClient *pkgch.Client, cfg *config.Config) repository.TradeArchive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseTradeArchive(chClient.DB(), cfg.ClickHouse.Database+".closed_trades")
}

// ProvideKafkaProducer creates a Kafka producer when kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the Kafka event publisher when a producer
// exists, nil otherwise.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRedisClient creates a Redis client when redis is enabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideFlowHistory selects the flow retention store: Redis when enabled,
// in-memory otherwise.
func ProvideFlowHistory(redisClient *redis.Client) repository.FlowHistory {
	if redisClient != nil {
		return internalrepo.NewRedisFlowHistory(redisClient)
	}
	return internalrepo.NewMemoryFlowHistory()
}

// ProvideFlowSource creates the polling options-activity feed client.
func ProvideFlowSource(cfg *config.Config) repository.FlowSource {
	return flowfeed.New(cfg.Scanner.FeedURL, 15*time.Second)
}

// ProvideTradeStore creates the in-memory trade ledger store.
func ProvideTradeStore() repository.TradeStore {
	return internalrepo.NewMemoryTradeStore()
}

// ProvideHub creates the realtime broadcast hub.
func ProvideHub(l *xlogger.Logger, m repository.Metrics) *ws.Hub {
	return ws.NewHub(l, m)
}

// ProvideFlowScanner creates the flow scanner use case.
func ProvideFlowScanner(
	source repository.FlowSource,
	history repository.FlowHistory,
	m repository.Metrics,
	l *xlogger.Logger,
	publisher repository.EventPublisher,
	hub *ws.Hub,
	cfg *config.Config,
) *usecase.FlowScanner {
	opts := []usecase.ScannerOption{usecase.WithBroadcaster(hub)}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	return usecase.NewFlowScanner(
		source, history, m, l,
		cfg.Scanner.Interval, cfg.Scanner.Retention, cfg.Scanner.Timeframe,
		opts...,
	)
}

// ProvideTradeLedger creates the trade ledger use case.
func ProvideTradeLedger(
	store repository.TradeStore,
	m repository.Metrics,
	l *xlogger.Logger,
	archive repository.TradeArchive,
	publisher repository.EventPublisher,
	hub *ws.Hub,
) *usecase.TradeLedger {
	opts := []usecase.LedgerOption{usecase.WithLedgerBroadcaster(hub)}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithLedgerPublisher(publisher))
	}
	return usecase.NewTradeLedger(store, m, l, opts...)
}

// ProvideArbitrageScanner creates the arbitrage scanner use case.
func ProvideArbitrageScanner() *usecase.ArbitrageScanner {
	return usecase.NewArbitrageScanner()
}

// ProvideDashboardAggregator creates the dashboard read-model builder.
func ProvideDashboardAggregator(
	ledger *usecase.TradeLedger,
	scanner *usecase.FlowScanner,
	cfg *config.Config,
) *usecase.DashboardAggregator {
	return usecase.NewDashboardAggregator(ledger, scanner, cfg.Dashboard.TopN)
}

// ProvideFeedStream creates the upstream feed stream when enabled.
func ProvideFeedStream(cfg *config.Config, l *xlogger.Logger, m repository.Metrics) repository.FeedStream {
	if !cfg.Stream.Enabled {
		return nil
	}
	return stream.New(cfg.Stream.URL, l, m,
		stream.WithPing(cfg.Stream.PingInterval, cfg.Stream.PongTimeout),
		stream.WithMaxAttempts(cfg.Stream.MaxAttempts),
	)
}

// ProvideStreamCollector creates the feed relay when a stream exists.
func ProvideStreamCollector(
	feed repository.FeedStream,
	hub *ws.Hub,
	m repository.Metrics,
	l *xlogger.Logger,
) *usecase.StreamCollector {
	if feed == nil {
		return nil
	}
	return usecase.NewStreamCollector(feed, hub, m, l)
}

// ProvideEngineHandler creates the HTTP API handler.
func ProvideEngineHandler(
	l *xlogger.Logger,
	arb *usecase.ArbitrageScanner,
	ledger *usecase.TradeLedger,
	agg *usecase.DashboardAggregator,
	scanner *usecase.FlowScanner,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
) *api.EngineHandler {
	return api.NewEngineHandler(l, arb, ledger, agg, scanner, limiter, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	scanner *usecase.FlowScanner,
	hub *ws.Hub,
	engine *api.EngineHandler,
	feed repository.FeedStream,
	collector *usecase.StreamCollector,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, limiter, scanner, hub, xhttp.Handlers{engine, hub})
	if feed != nil && collector != nil {
		app.SetStream(feed, collector)
	}
	if publisher != nil {
		app.SetPublisher(publisher)
	}
	if chClient != nil {
		app.SetClickHouse(chClient)
	}
	return app
}
