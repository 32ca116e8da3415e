package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
)

// Sink is the minimal storage interface the batcher flushes into.
type Sink interface {
	StoreBars(ctx context.Context, tf domrepo.Timeframe, bars []models.Bar) error
}

// BarBatcher sits between the Kafka consumer and the bar store. It
// validates incoming bars, accumulates them, and flushes either when
// the batch is full or when the oldest buffered bar exceeds the flush
// interval. Failed flushes keep the batch for the next attempt, up to
// a bounded buffer; beyond that the oldest bars are dropped.
type BarBatcher struct {
	sink    Sink
	tf      domrepo.Timeframe
	metrics domrepo.Metrics
	backend string

	batchSize int
	interval  time.Duration
	maxBuffer int

	mu      sync.Mutex
	buf     []models.Bar
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type BatcherOption func(*BarBatcher)

// WithBatchSize sets how many bars trigger an immediate flush.
func WithBatchSize(n int) BatcherOption {
	return func(b *BarBatcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithFlushInterval sets the maximum age of a buffered bar.
func WithFlushInterval(d time.Duration) BatcherOption {
	return func(b *BarBatcher) {
		if d > 0 {
			b.interval = d
		}
	}
}

// NewBarBatcher creates a batcher flushing into sink for one timeframe.
func NewBarBatcher(sink Sink, tf domrepo.Timeframe, metrics domrepo.Metrics, backend string, opts ...BatcherOption) *BarBatcher {
	b := &BarBatcher{
		sink:      sink,
		tf:        tf,
		metrics:   metrics,
		backend:   backend,
		batchSize: 500,
		interval:  2 * time.Second,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.maxBuffer = 10 * b.batchSize
	return b
}

// Start launches the age-based flush loop.
func (b *BarBatcher) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Flush(ctx)
			}
		}
	}()
}

// Stop halts the flush loop and drains what is left.
func (b *BarBatcher) Stop(ctx context.Context) {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()

	close(b.stopCh)
	b.wg.Wait()
	b.Flush(ctx)
}

// Add validates and buffers one bar, flushing when the batch is full.
func (b *BarBatcher) Add(ctx context.Context, bar models.Bar) error {
	if err := validateBar(bar); err != nil {
		b.metrics.RecordBarsDropped("invalid")
		return err
	}

	b.mu.Lock()
	b.buf = append(b.buf, bar)
	full := len(b.buf) >= b.batchSize
	b.mu.Unlock()

	if full {
		b.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered bars out. On failure the batch stays
// buffered for the next attempt; when the buffer outgrows its bound
// the oldest bars are dropped.
func (b *BarBatcher) Flush(ctx context.Context) {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buf
	b.buf = nil
	b.mu.Unlock()

	start := time.Now()
	err := b.sink.StoreBars(ctx, b.tf, batch)
	b.metrics.RecordLatency("store_batch", time.Since(start).Seconds())
	if err != nil {
		b.metrics.RecordError("ingest_flush")
		b.requeue(batch)
		return
	}
	for _, bar := range batch {
		b.metrics.RecordBarStored(b.backend, bar.Symbol)
	}
}

// Pending returns the current buffer depth.
func (b *BarBatcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *BarBatcher) requeue(batch []models.Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(batch, b.buf...)
	if over := len(b.buf) - b.maxBuffer; over > 0 {
		b.buf = b.buf[over:]
		for i := 0; i < over; i++ {
			b.metrics.RecordBarsDropped("buffer_full")
		}
	}
}

func validateBar(b models.Bar) error {
	if b.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if b.Time.IsZero() {
		return fmt.Errorf("time invalid")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if b.High < b.Low {
		return fmt.Errorf("high below low")
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}
