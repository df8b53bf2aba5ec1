package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/report"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/nexconsult/cnpj-enricher/internal/worker"
	"github.com/sirupsen/logrus"
)

// defaultSource names raw-body uploads that carry no file name
const defaultSource = "upload.csv"

// JobRunner schedules and cancels enrichment jobs
type JobRunner interface {
	Submit(ctx context.Context, table *models.InputTable) (*models.Job, error)
	Cancel(ctx context.Context, id string) (*models.Job, error)
}

// JobsHandler handles enrichment job requests
type JobsHandler struct {
	runner JobRunner
	store  services.JobStoreInterface
	logger *logrus.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(runner JobRunner, store services.JobStoreInterface, logger *logrus.Logger) *JobsHandler {
	return &JobsHandler{
		runner: runner,
		store:  store,
		logger: logger,
	}
}

// Create handles input upload and job submission
// @Summary Submit an enrichment job
// @Description Upload a CSV with a CNPJ column, either as multipart field "file" or as the raw request body
// @Tags Jobs
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param file formData file false "Input CSV"
// @Success 202 {object} models.JobResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /jobs [post]
func (h *JobsHandler) Create(c *gin.Context) {
	requestID := c.GetString("request_id")

	table, err := h.readTable(c)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Rejected job input")

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.abort(c, http.StatusRequestEntityTooLarge, "Input too large", err.Error(), "INPUT_TOO_LARGE")
			return
		}
		h.abort(c, http.StatusBadRequest, "Invalid input file", err.Error(), "INVALID_INPUT")
		return
	}

	job, err := h.runner.Submit(c.Request.Context(), table)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to submit job")

		switch {
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrRunnerStopped):
			h.abort(c, http.StatusServiceUnavailable, "Job queue unavailable", err.Error(), "QUEUE_UNAVAILABLE")
		default:
			h.abort(c, http.StatusInternalServerError, "Internal server error", "Failed to submit job", "INTERNAL_ERROR")
		}
		return
	}

	c.Header("Location", "/api/v1/jobs/"+job.ID)
	c.JSON(http.StatusAccepted, job.ToResponse())
}

// Get handles job status requests
// @Summary Get job status
// @Description Progress, counts and log lines of an enrichment job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.JobResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobsHandler) Get(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, job.ToResponse())
}

// Cancel handles job cancellation
// @Summary Cancel a job
// @Description Request cancellation; rows already processed are kept in the results
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 202 {object} models.JobResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /jobs/{id}/cancel [post]
func (h *JobsHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	job, err := h.runner.Cancel(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, id, err)
		return
	}

	if job.Status.Finished() {
		h.abort(c, http.StatusConflict, "Job already finished", "Job "+id+" is "+string(job.Status), "JOB_FINISHED")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"job_id":     id,
	}).Info("Job cancel requested")

	c.JSON(http.StatusAccepted, job.ToResponse())
}

// ResultsOK handles the success report download
// @Summary Download the success report
// @Tags Jobs
// @Produce text/csv
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{id}/results/ok [get]
func (h *JobsHandler) ResultsOK(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if len(job.Successes) == 0 {
		h.abort(c, http.StatusNotFound, "No results", "Nenhum CNPJ processado com sucesso", "NO_RESULTS")
		return
	}

	h.writeCSV(c, report.OKFileName, func(w io.Writer) error {
		return report.WriteSuccessesCSV(w, job.Successes)
	})
}

// ResultsErrors handles the error report download
// @Summary Download the error report
// @Tags Jobs
// @Produce text/csv
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{id}/results/errors [get]
func (h *JobsHandler) ResultsErrors(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	if len(job.Failures) == 0 {
		h.abort(c, http.StatusNotFound, "No results", "Nenhum CNPJ com erro", "NO_RESULTS")
		return
	}

	h.writeCSV(c, report.ErrorsFileName, func(w io.Writer) error {
		return report.WriteFailuresCSV(w, job.Failures)
	})
}

// readTable reads the upload from a multipart "file" field or the raw body
func (h *JobsHandler) readTable(c *gin.Context) (*models.InputTable, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, &services.InputError{Err: errors.New("campo 'file' ausente")}
		}

		f, err := fh.Open()
		if err != nil {
			return nil, &services.InputError{Source: fh.Filename, Err: err}
		}
		defer f.Close()

		return services.ReadInputTable(f, fh.Filename)
	}

	source := c.Query("filename")
	if source == "" {
		source = defaultSource
	}

	return services.ReadInputTable(c.Request.Body, source)
}

func (h *JobsHandler) loadJob(c *gin.Context) (*models.Job, bool) {
	id := c.Param("id")

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, id, err)
		return nil, false
	}
	return job, true
}

func (h *JobsHandler) storeError(c *gin.Context, id string, err error) {
	if errors.Is(err, services.ErrJobNotFound) {
		h.abort(c, http.StatusNotFound, "Job not found", "Job "+id+" does not exist or has expired", "JOB_NOT_FOUND")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"job_id":     id,
		"error":      err.Error(),
	}).Error("Failed to load job")
	h.abort(c, http.StatusInternalServerError, "Internal server error", "Failed to load job", "INTERNAL_ERROR")
}

func (h *JobsHandler) writeCSV(c *gin.Context, filename string, write func(io.Writer) error) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := write(c.Writer); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"file":       filename,
			"error":      err.Error(),
		}).Error("Failed to write report")
		_ = c.Error(err)
	}
}

func (h *JobsHandler) abort(c *gin.Context, status int, title, message, code string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
