package models

import "time"

// Dataset is the result of one feature-preparation run: a model-ready
// tensor plus the metadata a consumer needs to trust it.
// Note: no transport (json/http) concerns here.
type Dataset struct {
	ID           string
	Symbol       string
	Timeframe    string
	Mode         string
	WindowSize   int
	FeatureCount int
	FeatureNames []string
	Samples      int
	RowsIn       int
	RowsScaled   int
	ConfigHash   string
	From         time.Time
	To           time.Time
	PreparedAt   time.Time
	Quality      QualitySummary
	Tensor       [][][]float64
	Labels       []float64
	Split        *Split
}

// Split carries the optional train/test partition of a training run.
// The test tensor is always the chronological tail.
type Split struct {
	TrainX [][][]float64
	TrainY []float64
	TestX  [][][]float64
	TestY  []float64
}

// QualitySummary condenses the pre-run bar quality report.
type QualitySummary struct {
	Gaps          int  `json:"gaps"`
	Outliers      int  `json:"outliers"`
	ZeroRangeBars int  `json:"zero_range_bars"`
	MissingVolume bool `json:"missing_volume"`
}

// DatasetSummary is the announcement published after a successful run.
// The tensor itself is never published; consumers fetch it over HTTP
// or rebuild it from the same bars and config hash.
type DatasetSummary struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Timeframe    string    `json:"timeframe"`
	Mode         string    `json:"mode"`
	WindowSize   int       `json:"window_size"`
	FeatureCount int       `json:"feature_count"`
	Samples      int       `json:"samples"`
	ConfigHash   string    `json:"config_hash"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	PreparedAt   time.Time `json:"prepared_at"`
}

// Summary derives the publishable announcement from a dataset.
func (d *Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:           d.ID,
		Symbol:       d.Symbol,
		Timeframe:    d.Timeframe,
		Mode:         d.Mode,
		WindowSize:   d.WindowSize,
		FeatureCount: d.FeatureCount,
		Samples:      d.Samples,
		ConfigHash:   d.ConfigHash,
		From:         d.From,
		To:           d.To,
		PreparedAt:   d.PreparedAt,
	}
}

// JobState enumerates async preparation job states.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobStatus tracks an async preparation job in the cache.
type JobStatus struct {
	ID         string          `json:"id"`
	State      JobState        `json:"state"`
	Error      string          `json:"error,omitempty"`
	Dataset    *DatasetSummary `json:"dataset,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
