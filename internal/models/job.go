package models

import (
	"time"
)

// JobStatus represents the status of an import job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ImportFormat is the file format of a roster import
type ImportFormat string

const (
	ImportCSV    ImportFormat = "csv"
	ImportNDJSON ImportFormat = "ndjson"
)

// Job represents an artist roster import job
type Job struct {
	ID              string       `json:"job_id"`
	EventID         string       `json:"event_id"`
	Format          ImportFormat `json:"format"`
	Status          JobStatus    `json:"status"`
	IdempotencyKey  string       `json:"idempotency_key,omitempty"`
	TotalRecords    int          `json:"total_records"`
	ProcessedCount  int          `json:"processed"`
	SuccessfulCount int          `json:"successful"`
	FailedCount     int          `json:"failed"`
	DurationMs      int64        `json:"duration_ms,omitempty"`
	RowsPerSec      float64      `json:"rows_per_sec,omitempty"`
	FilePath        string       `json:"file_path,omitempty"`
	CreatedBy       string       `json:"created_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
}

// ValidationError represents a single rejected import line
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// JobResponse is the API response for job status
type JobResponse struct {
	Job
	Errors      []ValidationError `json:"errors,omitempty"`
	ErrorCount  int               `json:"error_count,omitempty"`
	ErrorReport string            `json:"error_report_url,omitempty"`
}

// ImportRequest represents an import job request
type ImportRequest struct {
	EventID        string
	Format         ImportFormat
	IdempotencyKey string
	CreatedBy      string
}
