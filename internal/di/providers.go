package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"FinPrep/internal/domain/repository"
	"FinPrep/internal/handler/api"
	mid "FinPrep/internal/middleware"
	"FinPrep/internal/pipeline"
	internalrepo "FinPrep/internal/repository"
	"FinPrep/internal/usecase"
	pkgcache "FinPrep/pkg/cache"
	pkgch "FinPrep/pkg/clickhouse"
	"FinPrep/pkg/config"
	pkgkafka "FinPrep/pkg/kafka"
	applogger "FinPrep/pkg/logger"
	"FinPrep/pkg/metrics"
	pkgqueue "FinPrep/pkg/queue"
	"FinPrep/pkg/server"
)

// ProvideLogger builds the application logger from the environment
// setting: console/debug in development, json/info everywhere else.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level, format := "info", "json"
	if cfg.Environment == "development" {
		level, format = "debug", "console"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarStore selects the storage backend, connects it and runs
// its schema migration.
func ProvideBarStore(cfg *config.Config, l *applogger.Logger) (repository.BarStore, error) {
	var store repository.BarStore

	switch cfg.Storage.Backend {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Storage.ClickHouse.Host),
			pkgch.WithPort(cfg.Storage.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Storage.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Storage.ClickHouse.User, cfg.Storage.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithAsyncInsert(cfg.Storage.ClickHouse.AsyncInsert, cfg.Storage.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.Storage.ClickHouse.DialTimeout, cfg.Storage.ClickHouse.ReadTimeout, cfg.Storage.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.Storage.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		s := internalrepo.NewCHBarStore(client)
		s.SetLogger(l)
		store = s

	case "postgres":
		s, err := internalrepo.NewPGBarStore(internalrepo.PGConfig{
			Host:         cfg.Storage.Postgres.Host,
			Port:         cfg.Storage.Postgres.Port,
			Database:     cfg.Storage.Postgres.Database,
			User:         cfg.Storage.Postgres.User,
			Password:     cfg.Storage.Postgres.Password,
			SSLMode:      cfg.Storage.Postgres.SSLMode,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		s.SetLogger(l)
		store = s

	case "sqlite":
		s, err := internalrepo.NewSQLiteBarStore(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		s.SetLogger(l)
		store = s

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init %s schema: %w", cfg.Storage.Backend, err)
	}

	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when brokers are
// configured. Dataset announcements and aggregated log shipping both
// ride on it; nil means both stay off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideDatasetPublisher announces prepared datasets on Kafka, or
// swallows them when no producer or topic is configured.
func ProvideDatasetPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) (repository.DatasetPublisher, error) {
	if producer == nil || cfg.Kafka.DatasetsTopic == "" {
		return internalrepo.NoopDatasetPublisher{}, nil
	}
	pub, err := internalrepo.NewKafkaDatasetPublisher(producer, cfg.Kafka.DatasetsTopic)
	if err != nil {
		return nil, fmt.Errorf("dataset publisher: %w", err)
	}
	pub.SetLogger(l)
	return pub, nil
}

// ProvideKafkaConsumer creates a Kafka consumer for bar ingest, nil
// when bars come from somewhere else.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Ingest.Source != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideBarBatcher buffers validated bars between ingest and store.
func ProvideBarBatcher(store repository.BarStore, m repository.Metrics, cfg *config.Config) *mid.BarBatcher {
	var opts []mid.BatcherOption
	if cfg.Ingest.BatchSize > 0 {
		opts = append(opts, mid.WithBatchSize(cfg.Ingest.BatchSize))
	}
	if cfg.Ingest.BatchTimeout > 0 {
		opts = append(opts, mid.WithFlushInterval(cfg.Ingest.BatchTimeout))
	}
	tf := repository.NormalizeTimeframe(cfg.Ingest.Timeframe)
	return mid.NewBarBatcher(store, tf, m, cfg.Storage.Backend, opts...)
}

// ProvideKafkaBarsHandler decodes bar messages into the batcher.
func ProvideKafkaBarsHandler(batcher *mid.BarBatcher, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, batcher, m, l)
}

// ProvideCache selects the dataset cache backend.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Mode {
	case "", "memory":
		var opts []pkgcache.MemoryOption
		if cfg.Cache.MaxEntries > 0 {
			opts = append(opts, pkgcache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
		}
		return pkgcache.NewMemoryCache(opts...), nil

	case "redis":
		return provideRedisCache(cfg)

	case "layered":
		rc, err := provideRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		var opts []pkgcache.LayeredOption
		if cfg.Cache.MaxEntries > 0 {
			opts = append(opts, pkgcache.WithLayeredMemorySize(cfg.Cache.MaxEntries))
		}
		return pkgcache.NewLayeredCache(rc, opts...), nil

	default:
		return nil, fmt.Errorf("unknown cache mode %q", cfg.Cache.Mode)
	}
}

func provideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	host, port := splitRedisAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

func splitRedisAddr(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if host == "" {
		host = "localhost"
	}
	port := 6379
	if ok {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 {
			port = p
		}
	}
	return host, port
}

// ProvideRedisClient builds the raw client the job queue runs on, nil
// when the queue is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Queue.Enabled {
		return nil
	}
	addr := cfg.Redis.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideRedisQueue creates the async preparation queue. The same
// instance enqueues from HTTP and consumes in-process.
func ProvideRedisQueue(l *applogger.Logger, cfg *config.Config, client *redis.Client) *pkgqueue.RedisQueue {
	if client == nil {
		return nil
	}
	qc := &pkgqueue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryMax,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	var opts []pkgqueue.RedisQueueOption
	if cfg.Queue.Name != "" {
		opts = append(opts, pkgqueue.WithKeyPrefix("finprep:"+cfg.Queue.Name))
	}
	return pkgqueue.NewRedisQueue(l, qc, client, pkgqueue.ModeProducerConsumer, opts...)
}

// ProvidePipeline builds the feature pipeline, taking defaults for any
// knob the config leaves unset.
func ProvidePipeline(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(pipelineConfig(cfg),
		pipeline.WithLogger(l),
		pipeline.WithObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return pipe, nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.Default()
	p := cfg.Pipeline

	if p.WindowSize > 0 {
		pc.WindowSize = p.WindowSize
	}
	if len(p.WMAWindows) > 0 {
		pc.WMAWindows = p.WMAWindows
	}
	if p.MACDShort > 0 {
		pc.MACDShort = p.MACDShort
	}
	if p.MACDLong > 0 {
		pc.MACDLong = p.MACDLong
	}
	if p.MACDSignal > 0 {
		pc.MACDSignal = p.MACDSignal
	}
	if p.RSIPeriod > 0 {
		pc.RSIPeriod = p.RSIPeriod
	}
	if p.StochPeriod > 0 {
		pc.StochPeriod = p.StochPeriod
	}
	if p.StochSmooth > 0 {
		pc.StochSmooth = p.StochSmooth
	}
	if p.BiasPeriod > 0 {
		pc.BiasPeriod = p.BiasPeriod
	}
	if p.BollPeriod > 0 {
		pc.BollPeriod = p.BollPeriod
	}
	if p.BollStd > 0 {
		pc.BollStd = p.BollStd
	}
	if p.ATRPeriod > 0 {
		pc.ATRPeriod = p.ATRPeriod
	}
	if len(p.PriceColumns) > 0 {
		pc.PriceColumns = p.PriceColumns
	}
	if len(p.VolumeColumns) > 0 {
		pc.VolumeColumns = p.VolumeColumns
	}
	if len(p.PercentColumns) > 0 {
		pc.PercentColumns = p.PercentColumns
	}
	if len(p.SignedColumns) > 0 {
		pc.SignedColumns = p.SignedColumns
	}
	return pc
}

// ProvideDatasetService assembles the preparation service.
func ProvideDatasetService(
	store repository.BarStore,
	cache pkgcache.Service,
	publisher repository.DatasetPublisher,
	pipe *pipeline.Pipeline,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.DatasetService {
	svc := usecase.NewDatasetService(store, cache, publisher, pipe, m, cfg.Cache.TTL)
	svc.SetLogger(l)
	return svc
}

// ProvideDatasetJobs exposes enqueue/status on top of the queue. Nil
// keeps the async endpoints answering 503.
func ProvideDatasetJobs(rq *pkgqueue.RedisQueue, cache pkgcache.Service, l *applogger.Logger) *usecase.DatasetJobs {
	if rq == nil {
		return nil
	}
	return usecase.NewDatasetJobs(rq, cache, l)
}

// ProvideDatasetJob is the queue-side worker running preparations.
func ProvideDatasetJob(svc *usecase.DatasetService, cache pkgcache.Service, l *applogger.Logger) *usecase.DatasetJob {
	return usecase.NewDatasetJob(svc, cache, l)
}

// ProvideDatasetsHandler registers the HTTP surface.
func ProvideDatasetsHandler(l *applogger.Logger, svc *usecase.DatasetService, jobs *usecase.DatasetJobs) *api.DatasetsHandler {
	return api.NewDatasetsHandler(l, svc, jobs)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.BarStore,
	batcher *mid.BarBatcher,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	producer *pkgkafka.Producer,
	rq *pkgqueue.RedisQueue,
	job *usecase.DatasetJob,
	handler *api.DatasetsHandler,
) *server.App {
	// Attach hook to consumer: NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, store, batcher, consumer, kh, producer, rq, job)
	app.SetHTTPHandler(handler)
	return app
}
