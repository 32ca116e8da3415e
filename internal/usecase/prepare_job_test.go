package usecase

import (
	"context"
	"testing"
	"time"

	"FinPrep/internal/domain/models"
	pkgcache "FinPrep/pkg/cache"
)

type fakeQueue struct {
	published []struct {
		Type    string
		Payload interface{}
	}
	fail bool
}

func (q *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if q.fail {
		return context.DeadlineExceeded
	}
	q.published = append(q.published, struct {
		Type    string
		Payload interface{}
	}{msgType, payload})
	return nil
}

func TestDatasetJobsEnqueue(t *testing.T) {
	cache := pkgcache.NewMemoryCache()
	defer cache.Close()
	q := &fakeQueue{}
	jobs := NewDatasetJobs(q, cache, nil)

	id, err := jobs.Enqueue(context.Background(), trainingRequest())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id == "" {
		t.Fatalf("empty job id")
	}

	if len(q.published) != 1 || q.published[0].Type != DatasetJobType {
		t.Fatalf("published: %+v", q.published)
	}
	payload, ok := q.published[0].Payload.(DatasetJobPayload)
	if !ok {
		t.Fatalf("payload type %T", q.published[0].Payload)
	}
	if payload.JobID != id || payload.Symbol != "EURUSD" {
		t.Fatalf("payload: %+v", payload)
	}

	status, err := jobs.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != models.JobQueued {
		t.Fatalf("state: got %s, want %s", status.State, models.JobQueued)
	}
}

func TestDatasetJobsEnqueueRejectsBadRequest(t *testing.T) {
	cache := pkgcache.NewMemoryCache()
	defer cache.Close()
	jobs := NewDatasetJobs(&fakeQueue{}, cache, nil)

	req := trainingRequest()
	req.Symbol = ""
	if _, err := jobs.Enqueue(context.Background(), req); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDatasetJobHandleSuccess(t *testing.T) {
	cache := pkgcache.NewMemoryCache()
	defer cache.Close()
	svc := newTestService(t, &fakeBarStore{bars: testBars(40)}, &fakePublisher{}, newStubMetrics())
	job := NewDatasetJob(svc, cache, nil)

	if job.Type() != DatasetJobType {
		t.Fatalf("job type: %s", job.Type())
	}

	// The queue delivers payloads as decoded JSON maps.
	payload := map[string]interface{}{
		"job_id":    "job-1",
		"symbol":    "EURUSD",
		"timeframe": "1m",
		"mode":      "training",
		"count":     float64(40),
	}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var status models.JobStatus
	if err := cache.Get(context.Background(), jobKey("job-1"), &status); err != nil {
		t.Fatalf("status read: %v", err)
	}
	if status.State != models.JobDone {
		t.Fatalf("state: got %s, want %s", status.State, models.JobDone)
	}
	if status.Dataset == nil || status.Dataset.Samples != 14 {
		t.Fatalf("status dataset: %+v", status.Dataset)
	}
	if status.UpdatedAt.IsZero() {
		t.Fatalf("missing update time")
	}
}

func TestDatasetJobHandleFailure(t *testing.T) {
	cache := pkgcache.NewMemoryCache()
	defer cache.Close()
	svc := newTestService(t, &fakeBarStore{}, &fakePublisher{}, newStubMetrics())
	job := NewDatasetJob(svc, cache, nil)

	payload := DatasetJobPayload{
		JobID:     "job-2",
		Symbol:    "EURUSD",
		Timeframe: "1m",
		Mode:      "training",
		Count:     40,
	}
	if err := job.Handle(context.Background(), payload); err == nil {
		t.Fatalf("expected failure for empty store")
	}

	var status models.JobStatus
	if err := cache.Get(context.Background(), jobKey("job-2"), &status); err != nil {
		t.Fatalf("status read: %v", err)
	}
	if status.State != models.JobFailed {
		t.Fatalf("state: got %s, want %s", status.State, models.JobFailed)
	}
	if status.Error == "" {
		t.Fatalf("failed status without error text")
	}
}

func TestDatasetJobPayloadRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	p := DatasetJobPayload{
		Symbol:    "EURUSD",
		Timeframe: "1m",
		Mode:      "training",
		From:      from.Unix(),
		To:        to.Unix(),
	}

	req := p.request()
	if !req.From.Equal(from) || !req.To.Equal(to) {
		t.Fatalf("range: got %v..%v", req.From, req.To)
	}
}
