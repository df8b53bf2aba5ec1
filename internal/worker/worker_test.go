package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingLookup struct {
	release chan struct{}
	started chan string
}

func (b *blockingLookup) Lookup(_ context.Context, cnpj string) models.LookupOutcome {
	if b.started != nil {
		b.started <- cnpj
	}
	if b.release != nil {
		<-b.release
	}
	if cnpj == "11222333000181" {
		return models.LookupOutcome{Err: &services.LookupError{Kind: services.LookupNotFound, StatusCode: 404, Message: "CNPJ não encontrado"}}
	}
	return models.LookupOutcome{Payload: json.RawMessage(`{"razao_social": "EMPRESA EXEMPLO LTDA"}`)}
}

func newTestRunner(t *testing.T, lookup services.LookupClient, queueSize int) (*Runner, *services.JobStore) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := services.NewJobStore(nil, time.Hour, logger)
	pipeline := services.NewPipeline(lookup, 0, logger)
	return NewRunner(pipeline, store, queueSize, 50, logger), store
}

// flakyStore fails the first snapshot that carries a finished status
type flakyStore struct {
	*services.JobStore
	mu     sync.Mutex
	failed bool
}

func (f *flakyStore) Save(ctx context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.failed && job.FinishedAt != nil {
		f.failed = true
		return errors.New("redis unavailable")
	}
	return f.JobStore.Save(ctx, job)
}

func waitForStatus(t *testing.T, store *services.JobStore, id string, status models.JobStatus) *models.Job {
	t.Helper()
	var job *models.Job
	require.Eventually(t, func() bool {
		got, err := store.Get(context.Background(), id)
		if err != nil {
			return false
		}
		job = got
		return got.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestRunner_CompletesJob(t *testing.T) {
	runner, store := newTestRunner(t, &blockingLookup{}, 4)
	runner.Start()
	defer runner.Stop()

	table := &models.InputTable{Source: "empresas.csv", Identifiers: []string{"11444777000161", "00000000000000", "11222333000181"}}
	job, err := runner.Submit(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, 3, job.Total)
	assert.NotEmpty(t, job.ID)

	done := waitForStatus(t, store, job.ID, models.JobStatusCompleted)
	assert.Equal(t, 3, done.Processed)
	assert.Equal(t, 1, done.SuccessCount)
	assert.Equal(t, 2, done.ErrorCount)
	assert.Equal(t, []models.Failure{
		{CNPJ: "00000000000000", Erro: "invalid sequence"},
		{CNPJ: "11222333000181", Erro: "CNPJ não encontrado"},
	}, done.Failures)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)
	require.NotEmpty(t, done.Logs)
	assert.Equal(t, "--- Concluído! ---", done.Logs[len(done.Logs)-1].Message)

	assert.Eventually(t, func() bool {
		return runner.GetStats().CompletedJobs == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_FinalSaveFailureStillFinishesJob(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &flakyStore{JobStore: services.NewJobStore(nil, time.Hour, logger)}
	runner := NewRunner(services.NewPipeline(&blockingLookup{}, 0, logger), store, 4, 50, logger)
	runner.Start()
	defer runner.Stop()

	table := &models.InputTable{Source: "empresas.csv", Identifiers: []string{"11444777000161"}}
	job, err := runner.Submit(context.Background(), table)
	require.NoError(t, err)

	done := waitForStatus(t, store.JobStore, job.ID, models.JobStatusCompleted)
	assert.Equal(t, 1, done.SuccessCount)
	require.NotEmpty(t, done.Logs)
	assert.Equal(t, "Falha ao salvar resultados: persist results: redis unavailable", done.Logs[len(done.Logs)-1].Message)

	assert.Eventually(t, func() bool {
		return runner.GetStats().FailedJobs == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_CancelRunningJob(t *testing.T) {
	lookup := &blockingLookup{release: make(chan struct{}), started: make(chan string, 1)}
	runner, store := newTestRunner(t, lookup, 4)
	runner.Start()
	defer runner.Stop()

	table := &models.InputTable{Source: "empresas.csv", Identifiers: []string{"11444777000161", "11444777000161", "11444777000161"}}
	job, err := runner.Submit(context.Background(), table)
	require.NoError(t, err)

	<-lookup.started
	_, err = runner.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	close(lookup.release)

	done := waitForStatus(t, store, job.ID, models.JobStatusCancelled)
	assert.Equal(t, 1, done.Processed)
	assert.Len(t, done.Successes, 1)

	var messages []string
	for _, l := range done.Logs {
		messages = append(messages, l.Message)
	}
	assert.Contains(t, messages, "Processamento cancelado pelo usuário")
}

func TestRunner_RunsJobsInOrder(t *testing.T) {
	lookup := &blockingLookup{started: make(chan string, 4)}
	runner, store := newTestRunner(t, lookup, 4)
	runner.Start()
	defer runner.Stop()

	first, err := runner.Submit(context.Background(), &models.InputTable{Identifiers: []string{"11444777000161"}})
	require.NoError(t, err)
	second, err := runner.Submit(context.Background(), &models.InputTable{Identifiers: []string{"11222333000181"}})
	require.NoError(t, err)

	waitForStatus(t, store, second.ID, models.JobStatusCompleted)
	waitForStatus(t, store, first.ID, models.JobStatusCompleted)

	assert.Equal(t, "11444777000161", <-lookup.started)
	assert.Equal(t, "11222333000181", <-lookup.started)
}

func TestRunner_QueueFull(t *testing.T) {
	runner, store := newTestRunner(t, &blockingLookup{}, 1)

	table := &models.InputTable{Identifiers: []string{"11444777000161"}}
	_, err := runner.Submit(context.Background(), table)
	require.NoError(t, err)

	job, err := runner.Submit(context.Background(), table)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, store.Health()["memory_jobs"])
}

func TestRunner_SubmitNilTable(t *testing.T) {
	runner, _ := newTestRunner(t, &blockingLookup{}, 1)

	_, err := runner.Submit(context.Background(), nil)

	var inputErr *services.InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestRunner_CancelUnknownJob(t *testing.T) {
	runner, _ := newTestRunner(t, &blockingLookup{}, 1)

	_, err := runner.Cancel(context.Background(), "missing")

	assert.ErrorIs(t, err, services.ErrJobNotFound)
}

func TestRunner_StopCancelsQueuedJobs(t *testing.T) {
	runner, store := newTestRunner(t, &blockingLookup{}, 2)

	job, err := runner.Submit(context.Background(), &models.InputTable{Identifiers: []string{"11444777000161"}})
	require.NoError(t, err)

	runner.Start()
	runner.Stop()

	// the job may have finished before Stop reached it
	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Finished())

	_, err = runner.Submit(context.Background(), &models.InputTable{Identifiers: []string{"11444777000161"}})
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunner_TrimsLogLines(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := services.NewJobStore(nil, time.Hour, logger)
	runner := NewRunner(services.NewPipeline(&blockingLookup{}, 0, logger), store, 1, 3, logger)

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = "00000000000000"
	}
	runner.Start()
	defer runner.Stop()

	job, err := runner.Submit(context.Background(), &models.InputTable{Identifiers: ids})
	require.NoError(t, err)

	done := waitForStatus(t, store, job.ID, models.JobStatusCompleted)
	assert.Len(t, done.Logs, 3)
	assert.Equal(t, 10, done.ErrorCount)
}
