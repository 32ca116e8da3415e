package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	"FinPrep/internal/usecase"
	pkgcache "FinPrep/pkg/cache"
	xhttp "FinPrep/pkg/http"
	xlogger "FinPrep/pkg/logger"
)

// DatasetsHandler exposes dataset preparation and bar readback over
// HTTP. The jobs service is optional; without it the async endpoints
// answer 503.
type DatasetsHandler struct {
	logger *xlogger.Logger
	svc    *usecase.DatasetService
	jobs   *usecase.DatasetJobs
}

func NewDatasetsHandler(logger *xlogger.Logger, svc *usecase.DatasetService, jobs *usecase.DatasetJobs) *DatasetsHandler {
	return &DatasetsHandler{logger: logger, svc: svc, jobs: jobs}
}

func (h *DatasetsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api/v1")
	g.POST("/datasets", h.Prepare)
	g.POST("/datasets/jobs", h.EnqueueJob)
	g.GET("/datasets/jobs/:id", h.JobStatus)
	g.GET("/bars", h.Bars)
	g.GET("/symbols", h.Symbols)
}

func (h *DatasetsHandler) Health(c echo.Context) error {
	if err := h.svc.Health(c.Request().Context()); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *DatasetsHandler) Prepare(c echo.Context) error {
	req := &models.PrepareDatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	preq := usecase.PrepareRequest{
		Symbol:    req.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Mode:      req.Mode,
		Count:     req.Count,
		TestSize:  req.TestSize,
		Shuffle:   req.Shuffle,
		Seed:      req.Seed,
	}
	var ok bool
	if preq.From, preq.To, ok = parseRange(req.From, req.To); !ok {
		return xhttp.BadRequestResponse(c, "unparseable from/to")
	}

	ds, err := h.svc.Prepare(c.Request().Context(), preq)
	if err != nil {
		if errors.Is(err, usecase.ErrNoBars) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("prepare dataset", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, models.NewDatasetResponse(ds, req.IncludeTensor))
}

func (h *DatasetsHandler) EnqueueJob(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "job queue disabled")
	}

	req := &models.EnqueueDatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	preq := usecase.PrepareRequest{
		Symbol:    req.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Mode:      req.Mode,
		Count:     req.Count,
		TestSize:  req.TestSize,
		Shuffle:   req.Shuffle,
		Seed:      req.Seed,
	}
	var ok bool
	if preq.From, preq.To, ok = parseRange(req.From, req.To); !ok {
		return xhttp.BadRequestResponse(c, "unparseable from/to")
	}

	id, err := h.jobs.Enqueue(c.Request().Context(), preq)
	if err != nil {
		h.logger.Error("enqueue dataset job", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.CreatedResponse(c, models.EnqueueDatasetResponse{JobID: id})
}

func (h *DatasetsHandler) JobStatus(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "job queue disabled")
	}

	id := c.Param("id")
	if id == "" {
		return xhttp.BadRequestResponse(c, "job id required")
	}

	status, err := h.jobs.Status(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return xhttp.NotFoundResponse(c, "job not found")
		}
		h.logger.Error("job status", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *DatasetsHandler) Bars(c echo.Context) error {
	req := &models.GetBarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from, to, ok := parseRange(req.From, req.To)
	if !ok {
		return xhttp.BadRequestResponse(c, "unparseable from/to")
	}

	bars, err := h.svc.Bars(c.Request().Context(), req.Symbol, domrepo.NormalizeTimeframe(req.TF), from, to, req.Limit)
	if err != nil {
		h.logger.Error("get bars", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, models.NewBarResponses(bars), int64(len(bars)))
}

func (h *DatasetsHandler) Symbols(c echo.Context) error {
	req := &models.GetSymbolsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols, err := h.svc.Symbols(c.Request().Context(), domrepo.NormalizeTimeframe(req.TF))
	if err != nil {
		h.logger.Error("list symbols", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

// parseRange parses optional from/to strings. Both empty is fine;
// one side set without the other, or garbage, is not.
func parseRange(fromS, toS string) (from, to time.Time, ok bool) {
	if fromS == "" && toS == "" {
		return time.Time{}, time.Time{}, true
	}
	if fromS == "" || toS == "" {
		return time.Time{}, time.Time{}, false
	}
	from, ok = xhttp.ParseTime(fromS)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok = xhttp.ParseTime(toS)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
