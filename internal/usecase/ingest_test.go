package usecase

import (
	"context"
	"testing"
	"time"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	mid "FinPrep/internal/middleware"
)

type captureSink struct {
	bars []models.Bar
}

func (s *captureSink) StoreBars(_ context.Context, _ domrepo.Timeframe, bars []models.Bar) error {
	s.bars = append(s.bars, bars...)
	return nil
}

func newTestHandler(m *stubMetrics) (*KafkaBarsHandler, *captureSink) {
	sink := &captureSink{}
	batcher := mid.NewBarBatcher(sink, domrepo.TF1m, m, "test", mid.WithBatchSize(1))
	return NewKafkaBarsHandler("bars.1m", batcher, m, nil), sink
}

func TestKafkaBarsHandlerStoresBar(t *testing.T) {
	m := newStubMetrics()
	h, sink := newTestHandler(m)

	if h.Topic() != "bars.1m" {
		t.Fatalf("topic: %s", h.Topic())
	}

	msg := []byte(`{"s":"EURUSD","t":1709251200,"o":1.0848,"h":1.0851,"l":1.0846,"c":1.0850,"v":1250,"sp":2}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sink.bars) != 1 {
		t.Fatalf("stored bars: got %d, want 1", len(sink.bars))
	}
	b := sink.bars[0]
	if b.Symbol != "EURUSD" || b.Volume != 1250 || b.Spread != 2 {
		t.Fatalf("bar: %+v", b)
	}
	want := time.Unix(1709251200, 0).UTC()
	if !b.Time.Equal(want) {
		t.Fatalf("time: got %v, want %v", b.Time, want)
	}
}

func TestKafkaBarsHandlerFoldsMilliseconds(t *testing.T) {
	h, sink := newTestHandler(newStubMetrics())

	msg := []byte(`{"s":"EURUSD","t":1709251200000,"o":1.08,"h":1.09,"l":1.07,"c":1.085,"v":10}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := time.Unix(1709251200, 0).UTC()
	if len(sink.bars) != 1 || !sink.bars[0].Time.Equal(want) {
		t.Fatalf("time fold failed: %+v", sink.bars)
	}
}

func TestKafkaBarsHandlerSkipsMalformed(t *testing.T) {
	m := newStubMetrics()
	h, sink := newTestHandler(m)

	if err := h.Handle(context.Background(), []byte(`{not json`)); err != nil {
		t.Fatalf("malformed message should be skipped, got %v", err)
	}
	if len(sink.bars) != 0 {
		t.Fatalf("malformed message reached store")
	}
	if m.dropped["unmarshal"] != 1 {
		t.Fatalf("drop not counted: %v", m.dropped)
	}
}

func TestKafkaBarsHandlerSkipsInvalidBar(t *testing.T) {
	m := newStubMetrics()
	h, sink := newTestHandler(m)

	msg := []byte(`{"s":"","t":1709251200,"o":1.08,"h":1.09,"l":1.07,"c":1.085,"v":10}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("invalid bar should be skipped, got %v", err)
	}
	if len(sink.bars) != 0 {
		t.Fatalf("invalid bar reached store")
	}
	if m.dropped["invalid"] != 1 {
		t.Fatalf("drop not counted: %v", m.dropped)
	}
}
