package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "FinPrep/internal/domain/repository"
	mid "FinPrep/internal/middleware"
	internalrepo "FinPrep/internal/repository"
	"FinPrep/internal/usecase"
	"FinPrep/pkg/config"
	xhttp "FinPrep/pkg/http"
	pkgkafka "FinPrep/pkg/kafka"
	applogger "FinPrep/pkg/logger"
	pkgqueue "FinPrep/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	store       domrepo.BarStore
	batcher     *mid.BarBatcher
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	queue       *pkgqueue.RedisQueue
	job         *usecase.DatasetJob
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. Consumer,
// producer, queue and job may be nil when the matching config section
// is disabled; Run skips the paths that need them.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	store domrepo.BarStore,
	batcher *mid.BarBatcher,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	queue *pkgqueue.RedisQueue,
	job *usecase.DatasetJob,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		store:    store,
		batcher:  batcher,
		consumer: consumer,
		kh:       kh,
		producer: producer,
		queue:    queue,
		job:      job,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		a.l = l
	}

	// Aggregated log shipping rides on the dataset producer when
	// one is configured.
	if a.cfg.Collector.Enabled && a.producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Collector.Interval,
			CountThreshold: 100,
			Topic:          a.cfg.Collector.Topic,
			Publisher:      a.producer,
		})
		l.Info("log collector attached", applogger.String("topic", a.cfg.Collector.Topic))
	}

	// Seed the store from an exported history file before serving.
	if a.cfg.Ingest.Source == "csv" {
		if err := a.seedFromCSV(ctx, l); err != nil {
			l.Error("csv seed failed", applogger.Error(err))
			return err
		}
	}

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetrics(l, 500*time.Millisecond))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, serverOpts...)

	// Streaming ingest: consumer feeds the batcher, batcher feeds
	// the store.
	if a.consumer != nil && a.kh != nil {
		a.batcher.Start(ctx)
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Async preparation workers.
	if a.queue != nil && a.job != nil {
		a.queue.RegisterJob(a.job)
		if err := a.queue.Start(); err != nil {
			l.Error("redis queue start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// seedFromCSV loads a terminal export and writes it through the store
// in ingest-sized chunks.
func (a *App) seedFromCSV(ctx context.Context, l *applogger.Logger) error {
	tf := domrepo.NormalizeTimeframe(a.cfg.Ingest.Timeframe)
	bars, err := internalrepo.LoadCSVBars(a.cfg.Ingest.CSVPath, a.cfg.Ingest.CSVSymbol)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}

	size := a.cfg.Ingest.BatchSize
	if size <= 0 {
		size = 500
	}
	for start := 0; start < len(bars); start += size {
		end := start + size
		if end > len(bars) {
			end = len(bars)
		}
		storeCtx, cancelStore := context.WithTimeout(ctx, time.Minute)
		err := a.store.StoreBars(storeCtx, tf, bars[start:end])
		cancelStore()
		if err != nil {
			return fmt.Errorf("store csv bars: %w", err)
		}
	}

	l.Info("csv bars loaded",
		applogger.String("path", a.cfg.Ingest.CSVPath),
		applogger.String("tf", string(tf)),
		applogger.Int("bars", len(bars)))
	return nil
}

// shutdown gracefully stops all services, ingest side first so the
// final batcher flush still has a live store.
func (a *App) shutdown(ctx context.Context) error {
	l := a.l

	stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(stopCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.batcher != nil {
		a.batcher.Stop(stopCtx)
	}

	if a.queue != nil {
		if err := a.queue.Stop(stopCtx); err != nil {
			l.Warn("redis queue stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(stopCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			l.Warn("store close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
