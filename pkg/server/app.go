package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "StockGate/internal/domain/repository"
	"StockGate/internal/service/quotecache"
	"StockGate/internal/usecase"
	pkgch "StockGate/pkg/clickhouse"
	"StockGate/pkg/config"
	xhttp "StockGate/pkg/http"
	pkgkafka "StockGate/pkg/kafka"
	applogger "StockGate/pkg/logger"
	"StockGate/pkg/queue"
)

// Deps carries the wired components the App owns for its lifetime. Only
// Handler is mandatory; everything else is optional per configuration.
type Deps struct {
	Handler         xhttp.Handler
	Cache           *quotecache.Cache
	Warmer          *usecase.CacheWarmer
	Consumer        *pkgkafka.Consumer
	ConsumerHandler pkgkafka.MessageHandler
	Queue           *queue.RedisQueue
	AuditStore      drepo.AuditStore
	Producer        *pkgkafka.Producer
	ClickHouse      *pkgch.Client
}

// App encapsulates the application lifecycle: startup order, signal
// handling, and graceful teardown in reverse order.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	deps       Deps
	httpServer *xhttp.Server
}

// New creates the application.
func New(cfg *config.Config, log *applogger.Logger, deps Deps) *App {
	return &App{cfg: cfg, log: log, deps: deps}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.deps.Handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.deps.Cache != nil {
		a.deps.Cache.StartSweep(ctx, time.Minute)
	}

	if a.deps.Warmer != nil {
		go func() {
			if err := a.deps.Warmer.Start(ctx); err != nil {
				a.log.Error("cache warmer error", applogger.Error(err))
			}
		}()
		a.log.Info("cache warmer started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if a.deps.Consumer != nil && a.deps.ConsumerHandler != nil {
		a.deps.Consumer.RegisterHandler(a.deps.ConsumerHandler)
		go func() {
			if err := a.deps.Consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("audit ingest consumer started", applogger.String("topic", a.deps.ConsumerHandler.Topic()))
	}

	if a.deps.Queue != nil {
		if err := a.deps.Queue.Start(); err != nil {
			a.log.Error("queue consumer start error", applogger.Error(err))
			return err
		}
		a.deps.Queue.StartRetryProcessor()
		a.log.Info("audit queue consumer started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops components in reverse startup order.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.deps.Queue != nil {
		if err := a.deps.Queue.Stop(shutdownCtx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.deps.Consumer != nil {
		if err := a.deps.Consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.deps.Warmer != nil {
		if err := a.deps.Warmer.Stop(); err != nil {
			a.log.Warn("cache warmer stop error", applogger.Error(err))
		}
	}

	if a.deps.Producer != nil {
		if err := a.deps.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.deps.AuditStore != nil {
		if err := a.deps.AuditStore.Close(); err != nil {
			a.log.Warn("audit store close error", applogger.Error(err))
		}
	}

	if a.deps.ClickHouse != nil {
		if err := a.deps.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
