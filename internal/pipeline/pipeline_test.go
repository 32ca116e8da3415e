package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// 30 monotonically rising minute bars. Bollinger's 20-bar lookback is
// the slowest indicator, so rows 0..18 are dropped and 11 rows
// survive scaling. With window 5 that leaves 11-(5-1) = 7 samples.
func endToEndConfig() Config {
	cfg := Default()
	cfg.WindowSize = 5
	return cfg
}

func TestPipelineTrainingEndToEnd(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	res, err := p.Run(barsFixture(30, 100.00, 0.01), ModeTraining)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.RowsIn != 30 {
		t.Fatalf("rows in: got %d, want 30", res.RowsIn)
	}
	if res.RowsScaled != 11 {
		t.Fatalf("rows scaled: got %d, want 11", res.RowsScaled)
	}
	if res.Samples != 7 {
		t.Fatalf("samples: got %d, want 7", res.Samples)
	}
	if res.FeatureCount != 17 {
		t.Fatalf("feature count: got %d, want 17", res.FeatureCount)
	}

	n, w, f := res.Tensor.Shape()
	if n != 7 || w != 5 || f != 17 {
		t.Fatalf("tensor shape: got (%d,%d,%d), want (7,5,17)", n, w, f)
	}

	if len(res.FeatureNames) != res.FeatureCount {
		t.Fatalf("feature names: got %d, want %d", len(res.FeatureNames), res.FeatureCount)
	}
	for _, name := range res.FeatureNames {
		if !strings.HasPrefix(name, ScaledPrefix) {
			t.Fatalf("feature %s lacks the scaled prefix", name)
		}
		if name == ScaledPrefix+ColRange || name == ColRange {
			t.Fatalf("label column leaked into features")
		}
	}
	if res.FeatureNames[0] != "scaled_open" {
		t.Fatalf("first feature: got %s, want scaled_open", res.FeatureNames[0])
	}

	if len(res.Labels) != res.Samples {
		t.Fatalf("labels: got %d, want %d", len(res.Labels), res.Samples)
	}
	// Rising closes give positive next-bar ranges everywhere except
	// the fabricated trailing label.
	for i := 0; i < len(res.Labels)-1; i++ {
		if res.Labels[i] <= 0 {
			t.Fatalf("labels[%d]: got %v, want > 0", i, res.Labels[i])
		}
	}
	if last := res.Labels[len(res.Labels)-1]; last != 0.0 {
		t.Fatalf("trailing label: got %v, want exactly 0.0", last)
	}

	// Time bounds reflect the surviving rows, bars 19..29.
	if got := res.To.Sub(res.From); got != 10*time.Minute {
		t.Fatalf("time span: got %v, want 10m", got)
	}
}

func TestPipelinePriceFeaturesStayInUnitRange(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	res, err := p.Run(barsFixture(30, 100.00, 0.01), ModeTraining)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// scaled_open/high/low/close share one min-max over the raw OHLC
	// pool, so every price cell lands in [0, 1].
	for i, sample := range res.Tensor {
		for j, row := range sample {
			for k := 0; k < 4; k++ {
				if row[k] < 0 || row[k] > 1 {
					t.Fatalf("tensor[%d][%d][%d] = %v outside [0,1]", i, j, k, row[k])
				}
			}
		}
	}
}

func TestPipelineInferenceDropsLabels(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	res, err := p.Run(barsFixture(30, 100.00, 0.01), ModeInference)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Labels != nil {
		t.Fatalf("inference must not return labels, got %v", res.Labels)
	}
	if res.FeatureCount != 17 || res.Samples != 7 {
		t.Fatalf("inference shape: got %d features, %d samples", res.FeatureCount, res.Samples)
	}
}

func TestPipelineDeterministic(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	a, err := p.Run(barsFixture(30, 100.00, 0.01), ModeTraining)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := p.Run(barsFixture(30, 100.00, 0.01), ModeTraining)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range a.Tensor {
		for j := range a.Tensor[i] {
			for k := range a.Tensor[i][j] {
				if a.Tensor[i][j][k] != b.Tensor[i][j][k] {
					t.Fatalf("tensor diverges at [%d][%d][%d]: %v vs %v",
						i, j, k, a.Tensor[i][j][k], b.Tensor[i][j][k])
				}
			}
		}
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("labels diverge at %d: %v vs %v", i, a.Labels[i], b.Labels[i])
		}
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := p.Run(nil, ModeTraining); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("got %v, want ErrEmptyTable", err)
	}
}

func TestPipelineAllRowsConsumedByWarmup(t *testing.T) {
	// 10 bars cannot fill Bollinger's 20-bar lookback: every row
	// keeps an undefined cell and the drop leaves an empty table.
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := p.Run(barsFixture(10, 100.00, 0.01), ModeTraining); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("got %v, want ErrEmptyTable", err)
	}
}

func TestPipelineUnknownMode(t *testing.T) {
	p, err := New(endToEndConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := p.Run(barsFixture(30, 100.00, 0.01), Mode("bogus")); err == nil {
		t.Fatalf("unknown mode must fail")
	}
}

func TestPipelineRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.WindowSize = 0
	if _, err := New(cfg); !errors.Is(err, ErrBadWindow) {
		t.Fatalf("got %v, want ErrBadWindow", err)
	}
}

type stageRecorder struct {
	stages []string
}

func (r *stageRecorder) ObserveStage(stage string, _ float64) {
	r.stages = append(r.stages, stage)
}

func TestPipelineObserverSeesEveryStage(t *testing.T) {
	rec := &stageRecorder{}
	p, err := New(endToEndConfig(), WithObserver(rec))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := p.Run(barsFixture(30, 100.00, 0.01), ModeTraining); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"enrich", "scale", "assemble", "window", "reshape"}
	if len(rec.stages) != len(want) {
		t.Fatalf("stages: got %v, want %v", rec.stages, want)
	}
	for i, s := range want {
		if rec.stages[i] != s {
			t.Fatalf("stage %d: got %s, want %s", i, rec.stages[i], s)
		}
	}
}
