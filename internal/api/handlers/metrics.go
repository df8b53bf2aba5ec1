package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/worker"
	"github.com/sirupsen/logrus"
)

// StatsProvider exposes job runner statistics
type StatsProvider interface {
	GetStats() worker.RunnerStats
}

// RequestCounter exposes the number of remote lookups sent
type RequestCounter interface {
	RequestCount() int64
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	runner StatsProvider
	lookup RequestCounter
	logger *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(runner StatsProvider, lookup RequestCounter, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		runner: runner,
		lookup: lookup,
		logger: logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Job runner counters, lookup volume and Go runtime figures
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := h.runner.GetStats()

	c.JSON(http.StatusOK, models.MetricsResponse{
		Jobs: models.JobMetrics{
			Total:     stats.TotalJobs,
			Completed: stats.CompletedJobs,
			Cancelled: stats.CancelledJobs,
			Failed:    stats.FailedJobs,
			Running:   stats.Active,
			Queued:    stats.QueueSize,
			Uptime:    time.Since(stats.StartTime).Round(time.Second).String(),
		},
		Lookups: h.lookup.RequestCount(),
		System: models.SystemMetrics{
			MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
			Goroutines:    runtime.NumGoroutine(),
			GoVersion:     runtime.Version(),
		},
		Timestamp: time.Now(),
	})
}
