package pipeline

import (
	"fmt"
	"time"

	"FinPrep/internal/domain/models"
	"FinPrep/pkg/logger"
)

// Observer receives per-stage wall-clock timings.
type Observer interface {
	ObserveStage(stage string, seconds float64)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger for stage diagnostics and scaling
// warnings.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithObserver attaches a per-stage timing observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.obs = o }
}

// Pipeline runs the full preparation chain over one bar batch. A
// Pipeline holds no per-run state: the same instance may serve
// concurrent runs as long as each run owns its input exclusively.
type Pipeline struct {
	cfg Config
	log *logger.Logger
	obs Observer
}

// New validates the configuration and builds a pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Result is the outcome of one run.
type Result struct {
	Tensor       Tensor
	Labels       []float64 // nil in inference mode
	FeatureCount int
	FeatureNames []string
	Samples      int
	RowsIn       int
	RowsScaled   int
	From         time.Time
	To           time.Time
}

// Run builds the raw table from bars and executes the full chain.
func (p *Pipeline) Run(bars []models.Bar, mode Mode) (*Result, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyTable
	}
	return p.RunFrame(FromBars(bars), mode)
}

// RunFrame executes enrich, scale, assemble, window and reshape over
// an already built table. The frame is consumed: enrichment appends
// columns in place.
func (p *Pipeline) RunFrame(f *Frame, mode Mode) (*Result, error) {
	rowsIn := f.Rows()
	if rowsIn == 0 {
		return nil, ErrEmptyTable
	}

	stage := p.stageTimer()

	if err := NewEnricher(p.cfg).Enrich(f); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	stage("enrich")

	scaled, err := NewScaler(p.cfg, p.log).Scale(f)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	stage("scale")

	fm, err := NewAssembler().Assemble(scaled)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	stage("assemble")

	ws, err := NewWindower(p.cfg.WindowSize).Window(fm)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	stage("window")

	var (
		tensor       Tensor
		labels       []float64
		featureCount = len(fm.Names)
	)
	rs := NewReshaper()
	switch mode {
	case ModeTraining:
		tensor, labels, err = rs.Training(ws, p.cfg.WindowSize, featureCount)
	case ModeInference:
		tensor, featureCount, err = rs.Inference(ws, p.cfg.WindowSize, featureCount)
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	stage("reshape")

	from, to := scaled.TimeBounds()
	res := &Result{
		Tensor:       tensor,
		Labels:       labels,
		FeatureCount: featureCount,
		FeatureNames: fm.Names,
		Samples:      len(tensor),
		RowsIn:       rowsIn,
		RowsScaled:   scaled.Rows(),
		From:         from,
		To:           to,
	}

	if p.log != nil {
		p.log.Debug("pipeline run complete",
			logger.String("mode", string(mode)),
			logger.Int("rows_in", rowsIn),
			logger.Int("rows_scaled", scaled.Rows()),
			logger.Int("samples", res.Samples),
			logger.Int("features", featureCount))
	}
	return res, nil
}

func (p *Pipeline) stageTimer() func(string) {
	last := time.Now()
	return func(stage string) {
		if p.obs != nil {
			p.obs.ObserveStage(stage, time.Since(last).Seconds())
		}
		last = time.Now()
	}
}
