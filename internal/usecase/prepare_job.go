package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	pkgcache "FinPrep/pkg/cache"
	"FinPrep/pkg/logger"
	"FinPrep/pkg/queue"
)

// DatasetJobType is the queue message type for async preparation.
const DatasetJobType = "dataset.prepare"

const jobStatusTTL = 24 * time.Hour

// DatasetJobPayload is the queued preparation request. Times travel
// as unix seconds so the payload survives the queue's JSON round trip.
type DatasetJobPayload struct {
	JobID     string `json:"job_id"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Mode      string `json:"mode"`
	From      int64  `json:"from,omitempty"`
	To        int64  `json:"to,omitempty"`
	Count     int    `json:"count,omitempty"`
	TestSize  int    `json:"test_size,omitempty"`
	Shuffle   bool   `json:"shuffle,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
}

func (p DatasetJobPayload) request() PrepareRequest {
	req := PrepareRequest{
		Symbol:    p.Symbol,
		Timeframe: domrepo.Timeframe(p.Timeframe),
		Mode:      p.Mode,
		Count:     p.Count,
		TestSize:  p.TestSize,
		Shuffle:   p.Shuffle,
		Seed:      p.Seed,
	}
	if p.From > 0 {
		req.From = time.Unix(p.From, 0).UTC()
	}
	if p.To > 0 {
		req.To = time.Unix(p.To, 0).UTC()
	}
	return req
}

// DatasetJobs enqueues preparation jobs and tracks their status in
// the cache. The HTTP layer enqueues and polls; workers update.
type DatasetJobs struct {
	queue queue.QueueService
	cache pkgcache.Service
	l     *logger.Logger
}

func NewDatasetJobs(q queue.QueueService, cache pkgcache.Service, l *logger.Logger) *DatasetJobs {
	return &DatasetJobs{queue: q, cache: cache, l: l}
}

// Enqueue records a queued status and publishes the job.
func (j *DatasetJobs) Enqueue(ctx context.Context, req PrepareRequest) (string, error) {
	if err := req.normalize(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	status := models.JobStatus{
		ID:         id,
		State:      models.JobQueued,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	if err := j.cache.Set(ctx, jobKey(id), status, jobStatusTTL); err != nil {
		return "", fmt.Errorf("record job status: %w", err)
	}

	payload := DatasetJobPayload{
		JobID:     id,
		Symbol:    req.Symbol,
		Timeframe: string(req.Timeframe),
		Mode:      req.Mode,
		Count:     req.Count,
		TestSize:  req.TestSize,
		Shuffle:   req.Shuffle,
		Seed:      req.Seed,
	}
	if !req.From.IsZero() {
		payload.From = req.From.Unix()
	}
	if !req.To.IsZero() {
		payload.To = req.To.Unix()
	}
	if err := j.queue.PublishMessage(ctx, DatasetJobType, payload); err != nil {
		return "", fmt.Errorf("enqueue dataset job: %w", err)
	}

	if j.l != nil {
		j.l.Info("dataset job enqueued",
			logger.String("job_id", id),
			logger.String("symbol", req.Symbol),
			logger.String("mode", req.Mode))
	}
	return id, nil
}

// Status returns the tracked state of a job.
func (j *DatasetJobs) Status(ctx context.Context, id string) (*models.JobStatus, error) {
	var status models.JobStatus
	if err := j.cache.Get(ctx, jobKey(id), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DatasetJob is the queue worker side: it runs the preparation and
// keeps the cached job status current.
type DatasetJob struct {
	svc   *DatasetService
	cache pkgcache.Service
	l     *logger.Logger
}

func NewDatasetJob(svc *DatasetService, cache pkgcache.Service, l *logger.Logger) *DatasetJob {
	return &DatasetJob{svc: svc, cache: cache, l: l}
}

func (j *DatasetJob) Name() string { return "dataset_prepare" }
func (j *DatasetJob) Type() string { return DatasetJobType }

func (j *DatasetJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[DatasetJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse dataset job payload: %w", err)
	}
	if p.JobID == "" {
		return fmt.Errorf("dataset job without id")
	}

	j.setState(ctx, p.JobID, func(s *models.JobStatus) {
		s.State = models.JobRunning
		s.Error = ""
	})

	ds, err := j.svc.Prepare(ctx, p.request())
	if err != nil {
		j.setState(ctx, p.JobID, func(s *models.JobStatus) {
			s.State = models.JobFailed
			s.Error = err.Error()
		})
		return err
	}

	summary := ds.Summary()
	j.setState(ctx, p.JobID, func(s *models.JobStatus) {
		s.State = models.JobDone
		s.Error = ""
		s.Dataset = &summary
	})
	return nil
}

func (j *DatasetJob) setState(ctx context.Context, id string, mut func(*models.JobStatus)) {
	var status models.JobStatus
	if err := j.cache.Get(ctx, jobKey(id), &status); err != nil {
		status = models.JobStatus{ID: id, EnqueuedAt: time.Now().UTC()}
	}
	mut(&status)
	status.UpdatedAt = time.Now().UTC()
	if err := j.cache.Set(ctx, jobKey(id), status, jobStatusTTL); err != nil && j.l != nil {
		j.l.Warn("job status write failed",
			logger.String("job_id", id),
			logger.Error(err))
	}
}

var _ queue.Job = (*DatasetJob)(nil)

func jobKey(id string) string { return pkgcache.GenerateKey("job", id) }
