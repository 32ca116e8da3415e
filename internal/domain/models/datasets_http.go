package models

import "time"

// Requests and responses for dataset HTTP endpoints. Defined in
// domain for consistency and reuse.

type PrepareDatasetRequest struct {
	Symbol        string `query:"symbol" json:"symbol" validate:"required"`
	TF            string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
	Mode          string `query:"mode" json:"mode" default:"training" validate:"oneof=training inference"`
	From          string `query:"from" json:"from,omitempty"`
	To            string `query:"to" json:"to,omitempty"`
	Count         int    `query:"n" json:"n" default:"5000" validate:"gte=0,lte=50000"`
	TestSize      int    `query:"test_size" json:"test_size" validate:"gte=0,lte=50000"`
	Shuffle       bool   `query:"shuffle" json:"shuffle"`
	Seed          int64  `query:"seed" json:"seed"`
	IncludeTensor bool   `query:"include_tensor" json:"include_tensor"`
}

type EnqueueDatasetRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	TF       string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
	Mode     string `query:"mode" json:"mode" default:"training" validate:"oneof=training inference"`
	From     string `query:"from" json:"from,omitempty"`
	To       string `query:"to" json:"to,omitempty"`
	Count    int    `query:"n" json:"n" default:"5000" validate:"gte=0,lte=50000"`
	TestSize int    `query:"test_size" json:"test_size" validate:"gte=0,lte=50000"`
	Shuffle  bool   `query:"shuffle" json:"shuffle"`
	Seed     int64  `query:"seed" json:"seed"`
}

type GetBarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
	From   string `query:"from" json:"from,omitempty"`
	To     string `query:"to" json:"to,omitempty"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type GetSymbolsRequest struct {
	TF string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
}

// DatasetResponse is the HTTP shape of a prepared dataset. Tensors
// are heavy, so they ride along only when include_tensor was set.
type DatasetResponse struct {
	ID           string         `json:"id"`
	Symbol       string         `json:"symbol"`
	Timeframe    string         `json:"timeframe"`
	Mode         string         `json:"mode"`
	WindowSize   int            `json:"window_size"`
	FeatureCount int            `json:"feature_count"`
	FeatureNames []string       `json:"feature_names"`
	Samples      int            `json:"samples"`
	RowsIn       int            `json:"rows_in"`
	RowsScaled   int            `json:"rows_scaled"`
	ConfigHash   string         `json:"config_hash"`
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	PreparedAt   time.Time      `json:"prepared_at"`
	Quality      QualitySummary `json:"quality"`

	Tensor [][][]float64  `json:"tensor,omitempty"`
	Labels []float64      `json:"labels,omitempty"`
	Split  *SplitResponse `json:"split,omitempty"`
}

// SplitResponse reports the train/test partition. Tensors follow the
// same include_tensor rule as the parent response.
type SplitResponse struct {
	TrainSamples int `json:"train_samples"`
	TestSamples  int `json:"test_samples"`

	TrainX [][][]float64 `json:"train_x,omitempty"`
	TrainY []float64     `json:"train_y,omitempty"`
	TestX  [][][]float64 `json:"test_x,omitempty"`
	TestY  []float64     `json:"test_y,omitempty"`
}

// NewDatasetResponse converts a dataset to its HTTP shape.
func NewDatasetResponse(d *Dataset, includeTensor bool) *DatasetResponse {
	r := &DatasetResponse{
		ID:           d.ID,
		Symbol:       d.Symbol,
		Timeframe:    d.Timeframe,
		Mode:         d.Mode,
		WindowSize:   d.WindowSize,
		FeatureCount: d.FeatureCount,
		FeatureNames: d.FeatureNames,
		Samples:      d.Samples,
		RowsIn:       d.RowsIn,
		RowsScaled:   d.RowsScaled,
		ConfigHash:   d.ConfigHash,
		From:         d.From,
		To:           d.To,
		PreparedAt:   d.PreparedAt,
		Quality:      d.Quality,
	}
	if includeTensor {
		r.Tensor = d.Tensor
		r.Labels = d.Labels
	}
	if d.Split != nil {
		r.Split = &SplitResponse{
			TrainSamples: len(d.Split.TrainX),
			TestSamples:  len(d.Split.TestX),
		}
		if includeTensor {
			r.Split.TrainX = d.Split.TrainX
			r.Split.TrainY = d.Split.TrainY
			r.Split.TestX = d.Split.TestX
			r.Split.TestY = d.Split.TestY
		}
	}
	return r
}

// BarResponse is the HTTP shape of one stored bar.
type BarResponse struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Spread int32     `json:"spread"`
}

// NewBarResponses converts stored bars to their HTTP shape.
func NewBarResponses(bars []Bar) []BarResponse {
	out := make([]BarResponse, len(bars))
	for i, b := range bars {
		out[i] = BarResponse{
			Symbol: b.Symbol,
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Spread: b.Spread,
		}
	}
	return out
}

// EnqueueDatasetResponse acknowledges an accepted async job.
type EnqueueDatasetResponse struct {
	JobID string `json:"job_id"`
}
