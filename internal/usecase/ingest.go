package usecase

import (
	"context"
	"encoding/json"
	"time"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	mid "FinPrep/internal/middleware"
	pkgkafka "FinPrep/pkg/kafka"
	"FinPrep/pkg/logger"
)

// KafkaBarsHandler consumes bar messages and feeds the ingest batcher.
// Malformed payloads are dropped rather than retried so one poison
// message cannot wedge a partition.
type KafkaBarsHandler struct {
	topic   string
	batcher *mid.BarBatcher
	metrics domrepo.Metrics
	l       *logger.Logger
}

func NewKafkaBarsHandler(topic string, batcher *mid.BarBatcher, metrics domrepo.Metrics, l *logger.Logger) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, batcher: batcher, metrics: metrics, l: l}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {s, t, o, h, l, c, v, sp}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"s"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
		Sp     int32   `json:"sp"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordBarsDropped("unmarshal")
		if h.l != nil {
			h.l.Warn("skipping malformed bar message", logger.Error(err))
		}
		return nil
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from bar time to now (approx)
	h.metrics.RecordLatency("ingest_e2e", time.Since(time.Unix(m.T, 0)).Seconds())

	bar := models.Bar{
		Symbol: m.Symbol,
		Time:   time.Unix(m.T, 0).UTC(),
		Open:   m.O,
		High:   m.H,
		Low:    m.L,
		Close:  m.C,
		Volume: int64(m.V),
		Spread: m.Sp,
	}
	if err := h.batcher.Add(ctx, bar); err != nil {
		if h.l != nil {
			h.l.Warn("skipping invalid bar",
				logger.String("symbol", m.Symbol),
				logger.Error(err))
		}
		return nil
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
