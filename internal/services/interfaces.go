package services

import (
	"context"

	"github.com/nexconsult/cnpj-enricher/internal/models"
)

// LookupClient defines the interface for the remote company registry
type LookupClient interface {
	// Lookup fetches one validated 14-digit CNPJ
	Lookup(ctx context.Context, cnpj string) models.LookupOutcome
}

// Reporter receives progress and log lines from a running pipeline.
// Calls arrive on the pipeline goroutine; implementations marshal them
// wherever they need to go.
type Reporter interface {
	// Progress is called after every row with the rows done so far
	Progress(done, total int)

	// Log appends a human-facing line; style is LogStyleError for failures
	Log(message string, style LogStyle)
}

// Persister receives the accumulated results once a run leaves RUNNING
type Persister interface {
	Persist(ctx context.Context, result *models.RunResult) error
}

// JobStoreInterface defines the interface for job state storage
type JobStoreInterface interface {
	// Save stores the job snapshot with the configured TTL
	Save(ctx context.Context, job *models.Job) error

	// Get retrieves a job snapshot by id
	Get(ctx context.Context, id string) (*models.Job, error)

	// Delete removes a job snapshot
	Delete(ctx context.Context, id string) error

	// Health returns job store health status
	Health() map[string]interface{}
}

// LogStyle tags a log line for the host
type LogStyle string

const (
	LogStyleInfo  LogStyle = ""
	LogStyleError LogStyle = "error"
)
