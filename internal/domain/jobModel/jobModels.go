package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeIngest JobType = "Ingest"
)

// Job is one asynchronous upload. Questions are answered synchronously and
// never become jobs.
type Job struct {
	Id          string                     `json:"id"`
	TraceId     string                     `json:"trace_id"`
	JobType     JobType                    `json:"job_type"`
	JobPayload  JobPayload                 `json:"job_payload"`
	Result      *commonModels.IngestResult `json:"result,omitempty"`
	Error       JobError                   `json:"error,omitempty"`
	CreatedTime time.Time                  `json:"created_time"`
	EndTime     time.Time                  `json:"end_time,omitempty"`
	Status      JobStatus                  `json:"status"`
	CurrentStep InternalStatus             `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	IngestFileName string `json:"ingest_file_name,omitempty"`
	IngestURL      string `json:"ingest_url,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
