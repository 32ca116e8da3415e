package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	"FinPrep/internal/pipeline"
	"FinPrep/internal/quality"
	pkgcache "FinPrep/pkg/cache"
	"FinPrep/pkg/logger"
)

const (
	defaultLookback = 5000
	maxLookback     = 50000
)

// ErrNoBars reports that the resolved range holds no data.
var ErrNoBars = errors.New("no bars in range")

// DatasetService turns stored bars into model-ready datasets. Results
// are cached under a key derived from everything that shapes the
// tensor, so identical requests are served without a rerun.
type DatasetService struct {
	store     domrepo.BarStore
	cache     pkgcache.Service
	publisher domrepo.DatasetPublisher
	pipe      *pipeline.Pipeline
	metrics   domrepo.Metrics
	l         *logger.Logger
	ttl       time.Duration
}

func NewDatasetService(
	store domrepo.BarStore,
	cache pkgcache.Service,
	publisher domrepo.DatasetPublisher,
	pipe *pipeline.Pipeline,
	metrics domrepo.Metrics,
	ttl time.Duration,
) *DatasetService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DatasetService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		pipe:      pipe,
		metrics:   metrics,
		ttl:       ttl,
	}
}

// SetLogger injects the logger after construction.
func (s *DatasetService) SetLogger(l *logger.Logger) {
	if l != nil {
		s.l = l
	}
}

// PrepareRequest describes one dataset run. Either an explicit
// From/To range or a latest-Count lookback; Count applies when the
// range is unset.
type PrepareRequest struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Mode      string
	From      time.Time
	To        time.Time
	Count     int

	// Training-only: carve the last TestSize samples off as a test
	// set, optionally shuffling the training head.
	TestSize int
	Shuffle  bool
	Seed     int64
}

func (r *PrepareRequest) normalize() error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidTimeframe(r.Timeframe) {
		return fmt.Errorf("unknown timeframe %q", r.Timeframe)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("from must be <= to")
	}
	if r.Count <= 0 {
		r.Count = defaultLookback
	}
	if r.Count > maxLookback {
		r.Count = maxLookback
	}
	return nil
}

func (r *PrepareRequest) explicitRange() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Prepare resolves bars, runs quality checks and the feature
// pipeline, caches the dataset and announces it downstream.
func (s *DatasetService) Prepare(ctx context.Context, req PrepareRequest) (*models.Dataset, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	mode, err := pipeline.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	key := s.datasetKey(req, mode)
	var cached models.Dataset
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		if s.l != nil {
			s.l.Debug("dataset served from cache",
				logger.String("key", key),
				logger.String("symbol", req.Symbol))
		}
		return &cached, nil
	}

	bars, err := s.resolveBars(ctx, req)
	if err != nil {
		s.metrics.RecordError("prepare_resolve")
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s %s", ErrNoBars, req.Symbol, req.Timeframe)
	}

	report := quality.Analyze(bars, req.Timeframe)
	if s.l != nil {
		s.l.Info("bar quality",
			logger.String("symbol", req.Symbol),
			logger.Int("rows", report.Rows),
			logger.Int("gaps", len(report.Gaps)),
			logger.Int("zero_range", report.ZeroRangeBars),
			logger.Int("missing_volume", report.MissingVolume))
	}

	start := time.Now()
	res, err := s.pipe.Run(bars, mode)
	if err != nil {
		s.metrics.RecordError("prepare_pipeline")
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	s.metrics.RecordLatency("prepare", time.Since(start).Seconds())
	s.metrics.RecordDatasetPrepared(string(mode), req.Symbol)
	s.metrics.RecordTensorShape(req.Symbol, res.Samples, s.pipe.Config().WindowSize, res.FeatureCount)

	ds := &models.Dataset{
		ID:           uuid.NewString(),
		Symbol:       req.Symbol,
		Timeframe:    string(req.Timeframe),
		Mode:         string(mode),
		WindowSize:   s.pipe.Config().WindowSize,
		FeatureCount: res.FeatureCount,
		FeatureNames: res.FeatureNames,
		Samples:      res.Samples,
		RowsIn:       res.RowsIn,
		RowsScaled:   res.RowsScaled,
		ConfigHash:   s.pipe.Config().Fingerprint(),
		From:         res.From,
		To:           res.To,
		PreparedAt:   time.Now().UTC(),
		Quality:      report.Summary(),
		Tensor:       res.Tensor,
		Labels:       res.Labels,
	}

	if mode == pipeline.ModeTraining && req.TestSize > 0 {
		sp, err := pipeline.Split(res.Tensor, res.Labels, req.TestSize, req.Shuffle, req.Seed)
		if err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		ds.Split = &models.Split{
			TrainX: sp.TrainX,
			TrainY: sp.TrainY,
			TestX:  sp.TestX,
			TestY:  sp.TestY,
		}
	}

	if err := s.cache.Set(ctx, key, ds, s.ttl); err != nil && s.l != nil {
		s.l.Warn("dataset cache write failed", logger.Error(err))
	}

	if err := s.publisher.PublishSummary(ctx, ds.Summary()); err != nil {
		s.metrics.RecordError("publish_summary")
		if s.l != nil {
			s.l.Error("dataset announcement failed",
				logger.String("id", ds.ID),
				logger.Error(err))
		}
	}

	if s.l != nil {
		s.l.Info("dataset prepared",
			logger.String("id", ds.ID),
			logger.String("symbol", ds.Symbol),
			logger.String("mode", ds.Mode),
			logger.Int("samples", ds.Samples),
			logger.Int("features", ds.FeatureCount),
			logger.Duration("took", time.Since(start)))
	}
	return ds, nil
}

// Bars serves raw bar readback for collaborator debugging.
func (s *DatasetService) Bars(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	if limit <= 0 {
		limit = 1000
	}
	if limit > maxLookback {
		limit = maxLookback
	}
	if from.IsZero() || to.IsZero() {
		return s.store.GetLatestBars(ctx, symbol, limit, tf)
	}
	bars, err := s.store.GetBars(ctx, symbol, from, to, tf)
	if err != nil {
		return nil, err
	}
	if len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, nil
}

// Symbols lists the instruments known to the store.
func (s *DatasetService) Symbols(ctx context.Context, tf domrepo.Timeframe) ([]string, error) {
	if !domrepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	return s.store.Symbols(ctx, tf)
}

// Health reports whether the backing store answers.
func (s *DatasetService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *DatasetService) resolveBars(ctx context.Context, req PrepareRequest) ([]models.Bar, error) {
	if req.explicitRange() {
		return s.store.GetBars(ctx, req.Symbol, req.From, req.To, req.Timeframe)
	}
	return s.store.GetLatestBars(ctx, req.Symbol, req.Count, req.Timeframe)
}

// datasetKey folds symbol, timeframe, mode, config fingerprint and the
// requested range into one deterministic cache key.
func (s *DatasetService) datasetKey(req PrepareRequest, mode pipeline.Mode) string {
	rangeTok := fmt.Sprintf("latest-%d", req.Count)
	if req.explicitRange() {
		rangeTok = fmt.Sprintf("%d-%d", req.From.Unix(), req.To.Unix())
	}
	splitTok := ""
	if req.TestSize > 0 {
		splitTok = fmt.Sprintf("split-%d-%t-%d", req.TestSize, req.Shuffle, req.Seed)
	}
	raw := pkgcache.GenerateKeyWithParams("dataset",
		req.Symbol, string(req.Timeframe), string(mode),
		s.pipe.Config().Fingerprint(), rangeTok, splitTok)
	return pkgcache.GenerateKey("dataset", pkgcache.HashKey(raw))
}
