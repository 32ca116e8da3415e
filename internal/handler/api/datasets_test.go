package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	"FinPrep/internal/pipeline"
	"FinPrep/internal/usecase"
	pkgcache "FinPrep/pkg/cache"
	xlogger "FinPrep/pkg/logger"
)

type memBarStore struct {
	bars []models.Bar
}

func (s *memBarStore) Init(context.Context) error { return nil }

func (s *memBarStore) StoreBars(context.Context, domrepo.Timeframe, []models.Bar) error {
	return nil
}

func (s *memBarStore) GetBars(_ context.Context, _ string, from, to time.Time, _ domrepo.Timeframe) ([]models.Bar, error) {
	var out []models.Bar
	for _, b := range s.bars {
		if !b.Time.Before(from) && !b.Time.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBarStore) GetLatestBars(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Bar, error) {
	if n >= len(s.bars) {
		return s.bars, nil
	}
	return s.bars[len(s.bars)-n:], nil
}

func (s *memBarStore) Symbols(context.Context, domrepo.Timeframe) ([]string, error) {
	return []string{"EURUSD"}, nil
}

func (s *memBarStore) Health(context.Context) error { return nil }
func (s *memBarStore) Close() error                 { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishSummary(context.Context, models.DatasetSummary) error { return nil }
func (noopPublisher) Close() error                                                { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordBarStored(string, string)          {}
func (noopMetrics) RecordBarsDropped(string)                {}
func (noopMetrics) RecordDatasetPrepared(string, string)    {}
func (noopMetrics) RecordError(string)                      {}
func (noopMetrics) RecordLatency(string, float64)           {}
func (noopMetrics) RecordTensorShape(string, int, int, int) {}
func (noopMetrics) ObserveStage(string, float64)            {}

type recordingQueue struct {
	types []string
}

func (q *recordingQueue) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	q.types = append(q.types, msgType)
	return nil
}

func risingBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		close := 100.0 + float64(i)*0.01
		bars[i] = models.Bar{
			Symbol: "EURUSD",
			Time:   t0.Add(time.Duration(i) * time.Minute),
			Open:   close - 0.002,
			High:   close + 0.003,
			Low:    close - 0.005,
			Close:  close,
			Volume: int64(1000 + i),
			Spread: 2,
		}
	}
	return bars
}

func newTestHandler(t *testing.T, withJobs bool) (*DatasetsHandler, *echo.Echo) {
	t.Helper()

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	pipe, err := pipeline.New(pipeline.Default())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	cache := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })

	store := &memBarStore{bars: risingBars(40)}
	svc := usecase.NewDatasetService(store, cache, noopPublisher{}, pipe, noopMetrics{}, time.Minute)

	var jobs *usecase.DatasetJobs
	if withJobs {
		jobs = usecase.NewDatasetJobs(&recordingQueue{}, cache, l)
	}

	h := NewDatasetsHandler(l, svc, jobs)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestPrepareEndpoint(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodPost, "/api/v1/datasets", `{"symbol":"EURUSD","n":40}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status: got %d, body %s", env.Status, env.Data)
	}

	var ds models.DatasetResponse
	if err := json.Unmarshal(env.Data, &ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if ds.Symbol != "EURUSD" || ds.Mode != "training" {
		t.Fatalf("dataset: %+v", ds)
	}
	if ds.Samples != 14 || ds.FeatureCount != 17 {
		t.Fatalf("shape: samples=%d features=%d", ds.Samples, ds.FeatureCount)
	}
	// tensor withheld unless asked for
	if ds.Tensor != nil {
		t.Fatalf("tensor included without include_tensor")
	}
}

func TestPrepareEndpointIncludeTensor(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodPost, "/api/v1/datasets", `{"symbol":"EURUSD","n":40,"include_tensor":true}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status: got %d", env.Status)
	}
	var ds models.DatasetResponse
	if err := json.Unmarshal(env.Data, &ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if len(ds.Tensor) != ds.Samples || len(ds.Labels) != ds.Samples {
		t.Fatalf("tensor/labels missing: %d/%d", len(ds.Tensor), len(ds.Labels))
	}
}

func TestPrepareEndpointValidation(t *testing.T) {
	_, e := newTestHandler(t, false)

	rec, env := doRequest(t, e, http.MethodPost, "/api/v1/datasets", `{"n":40}`)
	if rec.Code != http.StatusOK || env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got rec=%d env=%d", rec.Code, env.Status)
	}
}

func TestBarsEndpoint(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodGet, "/api/v1/bars?symbol=EURUSD&limit=10", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status: got %d", env.Status)
	}
	var list struct {
		Rows  []models.BarResponse `json:"rows"`
		Total int64                `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 10 || len(list.Rows) != 10 {
		t.Fatalf("list: total=%d rows=%d", list.Total, len(list.Rows))
	}
}

func TestSymbolsEndpoint(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodGet, "/api/v1/symbols", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status: got %d", env.Status)
	}
	var list struct {
		Rows []string `json:"rows"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Rows) != 1 || list.Rows[0] != "EURUSD" {
		t.Fatalf("symbols: %v", list.Rows)
	}
}

func TestJobsEndpointsDisabled(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodPost, "/api/v1/datasets/jobs", `{"symbol":"EURUSD"}`)
	if env.Status != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", env.Status)
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	_, e := newTestHandler(t, true)

	_, env := doRequest(t, e, http.MethodPost, "/api/v1/datasets/jobs", `{"symbol":"EURUSD","n":40}`)
	if env.Status != http.StatusCreated {
		t.Fatalf("enqueue status: got %d", env.Status)
	}
	var ack models.EnqueueDatasetResponse
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.JobID == "" {
		t.Fatalf("empty job id")
	}

	_, env = doRequest(t, e, http.MethodGet, "/api/v1/datasets/jobs/"+ack.JobID, "")
	if env.Status != http.StatusOK {
		t.Fatalf("status status: got %d", env.Status)
	}
	var status models.JobStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != models.JobQueued {
		t.Fatalf("state: got %s", status.State)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	_, e := newTestHandler(t, true)

	_, env := doRequest(t, e, http.MethodGet, "/api/v1/datasets/jobs/nope", "")
	if env.Status != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", env.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, e := newTestHandler(t, false)

	_, env := doRequest(t, e, http.MethodGet, "/health", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status: got %d", env.Status)
	}
}
