package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/handler/agentmsg"
	"StockGate/internal/handler/api"
	"StockGate/internal/handler/capability"
	internalrepo "StockGate/internal/repository"
	"StockGate/internal/service/marketdata"
	"StockGate/internal/service/quotecache"
	"StockGate/internal/service/reasoning"
	"StockGate/internal/service/resolver"
	"StockGate/internal/service/stream"
	"StockGate/internal/usecase"
	pkgcache "StockGate/pkg/cache"
	pkgch "StockGate/pkg/clickhouse"
	"StockGate/pkg/config"
	xhttp "StockGate/pkg/http"
	pkgkafka "StockGate/pkg/kafka"
	applogger "StockGate/pkg/logger"
	"StockGate/pkg/metrics"
	"StockGate/pkg/queue"
	"StockGate/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideResolver creates the symbol resolver.
func ProvideResolver() drepo.Resolver {
	return resolver.New()
}

// ProvideMarketData creates the resilient market data client.
func ProvideMarketData(cfg *config.Config, m drepo.Metrics, log *applogger.Logger) drepo.MarketData {
	return marketdata.New(marketdata.Config{
		BaseURL:          cfg.MarketData.BaseURL,
		APIKey:           cfg.MarketData.APIKey,
		Timeout:          cfg.MarketData.Timeout,
		MaxAttempts:      cfg.MarketData.MaxAttempts,
		BackoffBase:      cfg.MarketData.BackoffBase,
		BreakerThreshold: cfg.MarketData.BreakerThreshold,
		BreakerCooldown:  cfg.MarketData.BreakerCooldown,
	}, m, log)
}

// ProvideQuoteCache creates the single-flight quote cache.
func ProvideQuoteCache(client drepo.MarketData, cfg *config.Config, m drepo.Metrics, log *applogger.Logger) *quotecache.Cache {
	return quotecache.New(client, quotecache.Config{
		SnapshotTTL:    cfg.Cache.SnapshotTTL,
		HistoryTTL:     cfg.Cache.HistoryTTL,
		HistoryMonths:  cfg.Cache.HistoryMonths,
		FetchTimeout:   cfg.Cache.FetchTimeout,
		StaleRetention: cfg.Cache.StaleRetention,
	}, m, log)
}

// ProvideQuotes exposes the cache through the pipeline-facing interface.
func ProvideQuotes(c *quotecache.Cache) drepo.Quotes {
	return c
}

// ProvideReasoner creates the reasoning backend client.
func ProvideReasoner(cfg *config.Config, log *applogger.Logger) drepo.Reasoner {
	return reasoning.New(reasoning.Config{
		BaseURL:     cfg.Reasoning.BaseURL,
		APIKey:      cfg.Reasoning.APIKey,
		Model:       cfg.Reasoning.Model,
		Timeout:     cfg.Reasoning.Timeout,
		Temperature: cfg.Reasoning.Temperature,
	}, log)
}

// ProvideResultCache creates the correlation-id result cache over the
// configured cache backend.
func ProvideResultCache(cfg *config.Config, log *applogger.Logger) (drepo.ResultCache, error) {
	switch cfg.Results.Backend {
	case "memory":
		return internalrepo.NewCachedResults(pkgcache.NewMemoryCache()), nil
	case "redis":
		rc, err := redisCache(cfg)
		if err != nil {
			return nil, err
		}
		return internalrepo.NewCachedResults(rc), nil
	case "layered":
		rc, err := redisCache(cfg)
		if err != nil {
			return nil, err
		}
		return internalrepo.NewCachedResults(pkgcache.NewLayeredCache(rc)), nil
	}
	return nil, fmt.Errorf("unknown results backend %q", cfg.Results.Backend)
}

func redisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// AuditBackend bundles the audit sink with whatever infrastructure the
// configured backend needs the App to own.
type AuditBackend struct {
	Store           drepo.AuditStore
	Sink            usecase.AuditSink
	Consumer        *pkgkafka.Consumer
	ConsumerHandler pkgkafka.MessageHandler
	Queue           *queue.RedisQueue
	Producer        *pkgkafka.Producer
	ClickHouse      *pkgch.Client
}

// ProvideAuditBackend builds the audit trail for the configured backend.
// Every backend keeps a readable store so the recent-analyses endpoint
// works; kafka and queue modes write to it asynchronously.
func ProvideAuditBackend(cfg *config.Config, m drepo.Metrics, log *applogger.Logger) (*AuditBackend, error) {
	switch cfg.Audit.Backend {
	case "memory":
		store := internalrepo.NewMemoryAuditStore(0)
		return &AuditBackend{Store: store, Sink: usecase.NewStoreSink(store)}, nil

	case "clickhouse":
		ch, store, err := clickhouseAudit(cfg)
		if err != nil {
			return nil, err
		}
		return &AuditBackend{Store: store, Sink: usecase.NewStoreSink(store), ClickHouse: ch}, nil

	case "kafka":
		ch, store, err := clickhouseAudit(cfg)
		if err != nil {
			return nil, err
		}
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		consumer, err := pkgkafka.NewConsumer(
			pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		return &AuditBackend{
			Store:           store,
			Sink:            usecase.NewPublisherSink(internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.Topic)),
			Consumer:        consumer,
			ConsumerHandler: usecase.NewAuditIngestHandler(cfg.Kafka.Topic, store, m),
			Producer:        producer,
			ClickHouse:      ch,
		}, nil

	case "queue":
		store := internalrepo.NewMemoryAuditStore(0)
		rc, err := redisCache(cfg)
		if err != nil {
			return nil, err
		}
		q := queue.NewRedisQueue(log,
			&queue.QueueConfig{Workers: 2, QueueSize: 1000, RetryLimit: 3, RetryDelay: 5 * time.Second},
			rc.Client(), queue.ModeProducerConsumer)
		q.RegisterJob(usecase.NewAuditWriteJob(store, log))
		return &AuditBackend{Store: store, Sink: usecase.NewQueuedSink(q), Queue: q}, nil
	}
	return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
}

func clickhouseAudit(cfg *config.Config) (*pkgch.Client, drepo.AuditStore, error) {
	ch, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 10*time.Second, 10*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.InitSchema(ctx, internalrepo.AuditSchema); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	store := internalrepo.NewClickHouseAuditStore(ch.DB(), cfg.ClickHouse.Database+".audit_records")
	return ch, store, nil
}

// ProvidePipeline creates the orchestration pipeline.
func ProvidePipeline(
	res drepo.Resolver,
	quotes drepo.Quotes,
	reasoner drepo.Reasoner,
	results drepo.ResultCache,
	audit *AuditBackend,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(res, quotes, reasoner, results, audit.Sink, m, log, usecase.Config{
		RequestTimeout: cfg.Pipeline.RequestTimeout,
		ResultTTL:      cfg.Pipeline.ResultTTL,
		AuditRetention: cfg.Pipeline.AuditRetention,
	})
}

// ProvideWarmer creates the live-trade cache warmer when streaming is
// enabled.
func ProvideWarmer(cfg *config.Config, cache *quotecache.Cache, m drepo.Metrics, log *applogger.Logger) *usecase.CacheWarmer {
	if !cfg.Stream.Enabled {
		return nil
	}
	st := stream.New(cfg.Stream.APIKey, cfg.Stream.WebSocketURL, cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay, cfg.Stream.PingInterval, log)
	return usecase.NewCacheWarmer(st, cache, m)
}

// ProvideHandlers assembles the three protocol adapters plus health.
func ProvideHandlers(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	quotes drepo.Quotes,
	res drepo.Resolver,
	audit *AuditBackend,
) xhttp.Handler {
	ratePerMin := 0
	if cfg.RateLimit.Enabled {
		ratePerMin = cfg.RateLimit.PerMinute
	}
	agent := capability.AgentInfo{
		ID:          cfg.Agent.ID,
		Name:        cfg.Agent.Name,
		Version:     cfg.Agent.Version,
		Description: "Stock analysis gateway with Buy/Hold/Sell recommendations",
	}
	peers := internalrepo.NewStaticPeers(cfg.PeerEndpoints())
	return xhttp.Handlers{
		api.NewAnalyzeHandler(log, pipeline, audit.Store, ratePerMin),
		capability.NewHandler(log, pipeline, quotes, res, agent),
		agentmsg.NewHandler(log, pipeline, peers, agentmsg.Config{
			AgentID:        cfg.Agent.ID,
			AgentName:      cfg.Agent.Name,
			Version:        cfg.Agent.Version,
			ResponsePrefix: cfg.Agent.ResponsePrefix,
		}),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	cache *quotecache.Cache,
	warmer *usecase.CacheWarmer,
	audit *AuditBackend,
) *server.App {
	return server.New(cfg, log, server.Deps{
		Handler:         handler,
		Cache:           cache,
		Warmer:          warmer,
		Consumer:        audit.Consumer,
		ConsumerHandler: audit.ConsumerHandler,
		Queue:           audit.Queue,
		AuditStore:      audit.Store,
		Producer:        audit.Producer,
		ClickHouse:      audit.ClickHouse,
	})
}
