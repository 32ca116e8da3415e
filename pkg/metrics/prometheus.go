package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsStored       *prometheus.CounterVec
	barsDropped      *prometheus.CounterVec
	datasetsPrepared *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	tensorSamples    *prometheus.GaugeVec
	tensorWindow     *prometheus.GaugeVec
	tensorFeatures   *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finprep_bars_stored_total",
				Help: "Total number of bars written to storage",
			},
			[]string{"backend", "symbol"},
		),
		barsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finprep_bars_dropped_total",
				Help: "Total number of bars rejected before storage",
			},
			[]string{"reason"},
		),
		datasetsPrepared: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finprep_datasets_prepared_total",
				Help: "Total number of prepared datasets",
			},
			[]string{"mode", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finprep_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finprep_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finprep_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		tensorSamples: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finprep_tensor_samples",
				Help: "Sample count of the last prepared tensor",
			},
			[]string{"symbol"},
		),
		tensorWindow: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finprep_tensor_window",
				Help: "Window length of the last prepared tensor",
			},
			[]string{"symbol"},
		),
		tensorFeatures: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finprep_tensor_features",
				Help: "Feature count of the last prepared tensor",
			},
			[]string{"symbol"},
		),
	}
}

// RecordBarStored records one bar written to a storage backend.
func (r *Recorder) RecordBarStored(backend, symbol string) {
	r.barsStored.WithLabelValues(backend, symbol).Inc()
}

// RecordBarsDropped records bars rejected before storage.
func (r *Recorder) RecordBarsDropped(reason string) {
	r.barsDropped.WithLabelValues(reason).Inc()
}

// RecordDatasetPrepared records a completed preparation run.
func (r *Recorder) RecordDatasetPrepared(mode, symbol string) {
	r.datasetsPrepared.WithLabelValues(mode, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordTensorShape records the dimensions of the last prepared tensor.
func (r *Recorder) RecordTensorShape(symbol string, samples, window, features int) {
	r.tensorSamples.WithLabelValues(symbol).Set(float64(samples))
	r.tensorWindow.WithLabelValues(symbol).Set(float64(window))
	r.tensorFeatures.WithLabelValues(symbol).Set(float64(features))
}

// ObserveStage records the wall-clock duration of one pipeline stage.
func (r *Recorder) ObserveStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
