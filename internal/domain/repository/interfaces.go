package repository

import (
	"context"
	"time"

	"FinPrep/internal/domain/models"
)

// BarStore persists and serves price bars for the feature pipeline.
type BarStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBars(ctx context.Context, tf Timeframe, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
	GetLatestBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
	Symbols(ctx context.Context, tf Timeframe) ([]string, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// DatasetPublisher announces prepared datasets to downstream consumers.
type DatasetPublisher interface {
	PublishSummary(ctx context.Context, s models.DatasetSummary) error
	Close() error
}

// Metrics records operational counters for ingest and preparation.
type Metrics interface {
	RecordBarStored(backend, symbol string)
	RecordBarsDropped(reason string)
	RecordDatasetPrepared(mode, symbol string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordTensorShape(symbol string, samples, window, features int)
	ObserveStage(stage string, seconds float64)
}
