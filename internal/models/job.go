package models

import "time"

// JobStatus is the lifecycle state of an enrichment job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusCompleted JobStatus = "completed"
)

// Finished reports whether the job reached a terminal state
func (s JobStatus) Finished() bool {
	return s == JobStatusCancelled || s == JobStatusCompleted
}

// LogLine is one entry of a job's progress log
type LogLine struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message" example:"11444777000161 OK"`
	Style   string    `json:"style,omitempty" example:"error"`
}

// Job is the stored state of an enrichment run submitted over HTTP
type Job struct {
	ID           string          `json:"id" example:"1f0e6a52-5c7e-4c1c-9a37-0c7f0b1f3a4d"`
	Status       JobStatus       `json:"status" example:"running"`
	Source       string          `json:"source" example:"empresas.csv"`
	Total        int             `json:"total" example:"120"`
	Processed    int             `json:"processed" example:"42"`
	SuccessCount int             `json:"success_count" example:"40"`
	ErrorCount   int             `json:"error_count" example:"2"`
	Logs         []LogLine       `json:"logs"`
	Successes    []CompanyRecord `json:"successes,omitempty"`
	Failures     []Failure       `json:"failures,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// JobResponse is the job view returned by the API, without the result rows
type JobResponse struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Source       string     `json:"source"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Logs         []LogLine  `json:"logs"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// ToResponse strips the result rows from a job
func (j *Job) ToResponse() JobResponse {
	return JobResponse{
		ID:           j.ID,
		Status:       j.Status,
		Source:       j.Source,
		Total:        j.Total,
		Processed:    j.Processed,
		SuccessCount: j.SuccessCount,
		ErrorCount:   j.ErrorCount,
		Logs:         j.Logs,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
	}
}

// MetricsResponse represents the metrics endpoint payload
type MetricsResponse struct {
	Jobs      JobMetrics    `json:"jobs"`
	Lookups   int64         `json:"lookups" example:"1530"`
	System    SystemMetrics `json:"system"`
	Timestamp time.Time     `json:"timestamp"`
}

// JobMetrics summarizes the job runner
type JobMetrics struct {
	Total     int64  `json:"total" example:"12"`
	Completed int64  `json:"completed" example:"10"`
	Cancelled int64  `json:"cancelled" example:"1"`
	Failed    int64  `json:"failed" example:"0"`
	Running   int32  `json:"running" example:"1"`
	Queued    int    `json:"queued" example:"0"`
	Uptime    string `json:"uptime" example:"2h30m45s"`
}

// SystemMetrics holds Go runtime figures
type SystemMetrics struct {
	MemoryAllocMB float64 `json:"memory_alloc_mb" example:"12.5"`
	Goroutines    int     `json:"goroutines" example:"14"`
	GoVersion     string  `json:"go_version" example:"go1.24.5"`
}
