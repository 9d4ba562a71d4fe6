package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"MandiPulse/internal/domain/repository"
	"MandiPulse/internal/handler/api"
	internalrepo "MandiPulse/internal/repository"
	"MandiPulse/internal/service/metrics"
	"MandiPulse/internal/service/ratelimit"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/services/forecast"
	"MandiPulse/internal/services/livefeed"
	"MandiPulse/internal/services/series"
	"MandiPulse/internal/usecase"
	pkgcache "MandiPulse/pkg/cache"
	pkgch "MandiPulse/pkg/clickhouse"
	"MandiPulse/pkg/config"
	xhttp "MandiPulse/pkg/http"
	pkgkafka "MandiPulse/pkg/kafka"
	"MandiPulse/pkg/logger"
	pkgmetrics "MandiPulse/pkg/metrics"
	"MandiPulse/pkg/server"
)

const startupTimeout = 2 * time.Minute

// Engine bundles the use cases for callers that do not need the HTTP server.
type Engine struct {
	Insights *usecase.MarketInsightsUseCase
	Prices   *usecase.MarketPricesUseCase
	Store    *internalrepo.PriceStore
}

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the process registry with Go runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return pkgmetrics.New(reg)
}

func ProvideEndpointMetrics(reg *prometheus.Registry) *metrics.EndpointMetrics {
	return metrics.NewEndpointMetrics(reg)
}

// ProvidePriceSource selects the dataset backend. The cleanup closes the
// ClickHouse client when one was opened.
func ProvidePriceSource(cfg *config.Config) (repository.PriceSource, func(), error) {
	if cfg.Dataset.Source != "clickhouse" {
		return internalrepo.NewCSVSource(cfg.Dataset.Path), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClickHouse.DialTimeout+5*time.Second)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithReadOnly(true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	src, err := internalrepo.NewClickHouseSource(client.DB(), cfg.Dataset.Table)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return src, func() { _ = client.Close() }, nil
}

// ProvidePriceStore loads the dataset once; failure aborts startup.
func ProvidePriceStore(src repository.PriceSource, l *logger.Logger, m repository.Metrics) (*internalrepo.PriceStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return internalrepo.Load(ctx, src,
		internalrepo.WithLoadLogger(l.With("dataset")),
		internalrepo.WithLoadMetrics(m))
}

// ProvideCache returns the in-process cache, fronting Redis when enabled.
func ProvideCache(cfg *config.Config, l *logger.Logger) (pkgcache.Service, func(), error) {
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(1024))
	if !cfg.Redis.Enabled {
		return mem, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rc, err := pkgcache.NewRedisCache(ctx,
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache enabled", logger.String("addr", cfg.Redis.Addr))
	layered := pkgcache.NewLayeredCache(rc, mem, time.Minute)
	return layered, func() { _ = layered.Close() }, nil
}

// ProvideSnapshotPublisher returns nil when Kafka is disabled.
func ProvideSnapshotPublisher(cfg *config.Config, reg *prometheus.Registry) (repository.SnapshotPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(reg,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaSnapshotPublisher(producer)
	return pub, func() { _ = pub.Close() }, nil
}

func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Live.Timeout))
}

func ProvideCEDASource(cfg *config.Config, client *xhttp.Client, cache pkgcache.Service, l *logger.Logger) *livefeed.CEDASource {
	return livefeed.NewCEDASource(livefeed.CEDAConfig{
		APIKey:         cfg.Live.CEDAAPIKey,
		BaseURL:        cfg.Live.CEDABaseURL,
		CatalogTTL:     cfg.Live.CatalogTTL,
		CatalogTimeout: cfg.Live.Timeout,
	}, client, cache, l.With("ceda"))
}

// ProvideOrchestrator queries data.gov.in first and CEDA second.
func ProvideOrchestrator(cfg *config.Config, client *xhttp.Client, ceda *livefeed.CEDASource, cache pkgcache.Service, pub repository.SnapshotPublisher, l *logger.Logger, m repository.Metrics) *livefeed.Orchestrator {
	dataGov := livefeed.NewDataGovSource(livefeed.DataGovConfig{
		APIKey:    cfg.Live.DataGovAPIKey,
		BaseURL:   cfg.Live.DataGovBaseURL,
		Resources: cfg.Live.Resources,
	}, client, l.With("data.gov.in"))

	opts := []livefeed.Option{
		livefeed.WithTimeout(cfg.Live.Timeout),
		livefeed.WithResultCache(cache, cfg.Live.ResultTTL),
		livefeed.WithLogger(l.With("livefeed")),
		livefeed.WithMetrics(m),
	}
	if pub != nil {
		opts = append(opts, livefeed.WithPublisher(pub))
	}
	return livefeed.NewOrchestrator([]livefeed.Source{dataGov, ceda}, opts...)
}

func ProvideForecastEngine(cfg *config.Config, l *logger.Logger, m repository.Metrics) (*forecast.Engine, error) {
	return forecast.NewEngine(forecast.Config{
		Trees:       cfg.Forecast.Trees,
		MaxDepth:    cfg.Forecast.MaxDepth,
		Seed:        cfg.Forecast.Seed,
		HorizonDays: cfg.Forecast.HorizonDays,
		MinPoints:   cfg.Forecast.MinPoints,
		CacheSize:   cfg.Forecast.CacheSize,
		Workers:     cfg.Forecast.Workers,
	}, forecast.WithLogger(l.With("forecast")), forecast.WithMetrics(m))
}

func ProvideTrendClassifier(cfg *config.Config) *analytics.TrendClassifier {
	return analytics.NewTrendClassifier(
		analytics.WithTrendMinPoints(cfg.Analytics.TrendMinPoints, cfg.Analytics.SegmentedMinPoints),
	)
}

func ProvideStabilityClassifier(cfg *config.Config) *analytics.StabilityClassifier {
	return analytics.NewStabilityClassifier(cfg.Analytics.StabilityMinPoints)
}

func ProvideAggregator(cfg *config.Config, store *internalrepo.PriceStore) *series.Aggregator {
	return series.NewAggregator(store, series.WithMaxMarkets(cfg.Analytics.MaxMarkets))
}

func ProvideMarketInsights(store *internalrepo.PriceStore, trend *analytics.TrendClassifier, stability *analytics.StabilityClassifier, eng *forecast.Engine, l *logger.Logger) *usecase.MarketInsightsUseCase {
	return usecase.NewMarketInsightsUseCase(store, trend, stability, eng, l.With("insights"))
}

func ProvideMarketPrices(agg *series.Aggregator, orch *livefeed.Orchestrator, ceda *livefeed.CEDASource, l *logger.Logger) *usecase.MarketPricesUseCase {
	return usecase.NewMarketPricesUseCase(agg, orch, ceda, l.With("prices"))
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Live.RateCapacity, cfg.Live.RatePerSecond)
}

func ProvideHandler(l *logger.Logger, store *internalrepo.PriceStore, insights *usecase.MarketInsightsUseCase, prices *usecase.MarketPricesUseCase, limiter *ratelimit.Limiter, m *metrics.EndpointMetrics) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(l.With("api"), store, insights, prices, limiter, m)
}

func ProvideApp(cfg *config.Config, h *api.MarketEchoHandler, reg *prometheus.Registry, l *logger.Logger) *server.App {
	return server.New(cfg, h, reg, l)
}

func ProvideEngine(insights *usecase.MarketInsightsUseCase, prices *usecase.MarketPricesUseCase, store *internalrepo.PriceStore) *Engine {
	return &Engine{Insights: insights, Prices: prices, Store: store}
}
