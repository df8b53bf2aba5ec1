package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by Submit when the job queue has no free slot
var ErrQueueFull = errors.New("job queue is full")

// ErrRunnerStopped is returned by Submit after Stop
var ErrRunnerStopped = errors.New("job runner is stopped")

// Runner executes enrichment jobs one at a time on a single background
// goroutine, in submission order.
type Runner struct {
	pipeline    *services.Pipeline
	store       services.JobStoreInterface
	logger      *logrus.Logger
	maxLogLines int

	queue   chan *task
	cancels sync.Map // job id -> *services.CancelFlag

	stats RunnerStats

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// RunnerStats estatísticas do runner
type RunnerStats struct {
	TotalJobs     int64     `json:"total_jobs"`
	CompletedJobs int64     `json:"completed_jobs"`
	CancelledJobs int64     `json:"cancelled_jobs"`
	FailedJobs    int64     `json:"failed_jobs"`
	Active        int32     `json:"active"`
	QueueSize     int       `json:"queue_size"`
	StartTime     time.Time `json:"start_time"`
}

type task struct {
	job   *models.Job
	table *models.InputTable
	flag  *services.CancelFlag
}

// NewRunner creates a runner with room for queueSize pending jobs
func NewRunner(pipeline *services.Pipeline, store services.JobStoreInterface, queueSize, maxLogLines int, logger *logrus.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		pipeline:    pipeline,
		store:       store,
		logger:      logger,
		maxLogLines: maxLogLines,
		queue:       make(chan *task, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		stats: RunnerStats{
			StartTime: time.Now(),
		},
	}
}

// Start launches the worker goroutine
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()

	r.logger.WithField("queue_capacity", cap(r.queue)).Info("Job runner started")
}

// Stop cancels the running job and every queued one, then waits for the
// worker to record them.
func (r *Runner) Stop() {
	r.logger.Info("Stopping job runner...")

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	r.logger.Info("Job runner stopped")
}

// Submit stores a queued job for table and schedules it
func (r *Runner) Submit(ctx context.Context, table *models.InputTable) (*models.Job, error) {
	if table == nil {
		return nil, &services.InputError{Err: fmt.Errorf("nenhum arquivo de entrada carregado")}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return nil, ErrRunnerStopped
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		Status:    models.JobStatusQueued,
		Source:    table.Source,
		Total:     table.Len(),
		Logs:      []models.LogLine{},
		CreatedAt: time.Now(),
	}
	if err := r.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	// the worker owns job once queued
	queued := *job

	t := &task{job: job, table: table, flag: &services.CancelFlag{}}
	r.cancels.Store(job.ID, t.flag)
	select {
	case r.queue <- t:
	default:
		r.cancels.Delete(job.ID)
		_ = r.store.Delete(ctx, job.ID)
		return nil, ErrQueueFull
	}

	atomic.AddInt64(&r.stats.TotalJobs, 1)

	r.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"source": job.Source,
		"total":  job.Total,
	}).Info("Job queued")

	return &queued, nil
}

// Cancel flips the cancel flag of a queued or running job. Jobs already
// finished are left untouched.
func (r *Runner) Cancel(ctx context.Context, id string) (*models.Job, error) {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if flag, ok := r.cancels.Load(id); ok {
		flag.(*services.CancelFlag).Cancel()
		r.logger.WithField("job_id", id).Info("Job cancellation requested")
	}

	return job, nil
}

// GetStats retorna estatísticas do runner
func (r *Runner) GetStats() RunnerStats {
	return RunnerStats{
		TotalJobs:     atomic.LoadInt64(&r.stats.TotalJobs),
		CompletedJobs: atomic.LoadInt64(&r.stats.CompletedJobs),
		CancelledJobs: atomic.LoadInt64(&r.stats.CancelledJobs),
		FailedJobs:    atomic.LoadInt64(&r.stats.FailedJobs),
		Active:        atomic.LoadInt32(&r.stats.Active),
		QueueSize:     len(r.queue),
		StartTime:     r.stats.StartTime,
	}
}

func (r *Runner) loop() {
	defer r.wg.Done()

	for t := range r.queue {
		if r.ctx.Err() != nil {
			t.flag.Cancel()
		}
		r.process(t)
	}

	r.logger.Debug("Job runner loop finished")
}

func (r *Runner) process(t *task) {
	atomic.AddInt32(&r.stats.Active, 1)
	defer func() {
		atomic.AddInt32(&r.stats.Active, -1)
		r.cancels.Delete(t.job.ID)
	}()

	log := r.logger.WithField("job_id", t.job.ID)

	started := time.Now()
	t.job.Status = models.JobStatusRunning
	t.job.StartedAt = &started

	rep := &jobReporter{runner: r, job: t.job}
	rep.save()

	persister := &jobPersister{runner: r, job: t.job}
	result, err := r.pipeline.Run(r.ctx, t.table, t.flag, rep, persister)
	if err != nil && result == nil {
		atomic.AddInt64(&r.stats.FailedJobs, 1)
		log.WithError(err).Error("Job failed to start")

		finished := time.Now()
		t.job.Status = models.JobStatusCompleted
		t.job.FinishedAt = &finished
		rep.Log(err.Error(), services.LogStyleError)
		rep.save()
		return
	}
	if err != nil {
		atomic.AddInt64(&r.stats.FailedJobs, 1)
		log.WithError(err).Error("Job results could not be stored")

		// Persist already set the final status
		rep.Log("Falha ao salvar resultados: "+err.Error(), services.LogStyleError)
		rep.save()
		return
	}

	if result.Cancelled {
		atomic.AddInt64(&r.stats.CancelledJobs, 1)
	} else {
		atomic.AddInt64(&r.stats.CompletedJobs, 1)
	}

	log.WithFields(logrus.Fields{
		"status":    t.job.Status,
		"successes": len(result.Successes),
		"failures":  len(result.Failures),
		"duration":  time.Since(started),
	}).Info("Job finished")
}

// jobReporter mirrors pipeline progress into the stored job snapshot. Log lines
// are saved with the next Progress call.
type jobReporter struct {
	runner *Runner
	job    *models.Job
}

func (j *jobReporter) Progress(done, total int) {
	j.job.Processed = done
	j.job.Total = total
	j.save()
}

func (j *jobReporter) Log(message string, style services.LogStyle) {
	j.job.Logs = append(j.job.Logs, models.LogLine{
		Time:    time.Now(),
		Message: message,
		Style:   string(style),
	})
	if limit := j.runner.maxLogLines; limit > 0 && len(j.job.Logs) > limit {
		j.job.Logs = j.job.Logs[len(j.job.Logs)-limit:]
	}
}

func (j *jobReporter) save() {
	if err := j.runner.store.Save(context.Background(), j.job); err != nil {
		j.runner.logger.WithFields(logrus.Fields{
			"job_id": j.job.ID,
			"error":  err.Error(),
		}).Warn("Failed to save job snapshot")
	}
}

// jobPersister stores the final results on the job
type jobPersister struct {
	runner *Runner
	job    *models.Job
}

func (j *jobPersister) Persist(ctx context.Context, result *models.RunResult) error {
	finished := result.FinishedAt
	j.job.FinishedAt = &finished
	j.job.Processed = result.Processed
	j.job.Successes = result.Successes
	j.job.Failures = result.Failures
	j.job.SuccessCount = len(result.Successes)
	j.job.ErrorCount = len(result.Failures)
	if result.Cancelled {
		j.job.Status = models.JobStatusCancelled
	} else {
		j.job.Status = models.JobStatusCompleted
	}

	return j.runner.store.Save(ctx, j.job)
}
