package worker

import (
	"context"
	"os"
	"time"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/config"
	jobmodel "github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestJobTimeout)
	defer cancel()
	log := logger.WithTrace(ctx).With("job id", job.Id)
	log.Debug("Processing job")

	job.CurrentStep = jobmodel.IngestProcessing
	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeIngest:
		job = ingestDocument(ctx, job, log)
	default:
		log.Error("Unknown job type", "jobType", job.JobType)
		job.Error = jobmodel.JobError{Code: 400, Message: "unknown job type " + string(job.JobType)}
	}

	// the outcome is recorded even when the ingest deadline has passed
	saveCtx := context.WithoutCancel(ctx)
	job.EndTime = time.Now()
	if job.Error.Code != 0 {
		job.CurrentStep = jobmodel.Error
		job = saveJobState(saveCtx, job, jobmodel.JobStatusError)
		return
	}
	job.CurrentStep = jobmodel.Complete
	job = saveJobState(saveCtx, job, jobmodel.JobStatusComplete)
}

// removeWorker releases a worker whose slot is already taken off currentWorkerCount.
func removeWorker(id int64, reason string, remaining int64) {
	workerWaitGroup.Done()
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "worker", id, "reason", reason, "workers", remaining)
}

// ingestDocument runs the pipeline on the staged upload and removes it afterwards.
func ingestDocument(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) jobmodel.Job {
	defer func() {
		if err := os.Remove(job.JobPayload.IngestURL); err != nil && !os.IsNotExist(err) {
			log.Warn("Could not remove staged upload", "path", job.JobPayload.IngestURL, "error", err)
		}
	}()

	result, err := _ragService.Ingest(ctx, job.JobPayload.IngestURL, job.JobPayload.IngestFileName)
	if err != nil {
		log.Error("Ingestion failed", "filename", job.JobPayload.IngestFileName, "error", err)
		job.Error = jobmodel.JobError{
			Code:    adapter.StatusForError(err),
			Message: err.Error(),
			Retry:   adapter.IsRetryable(err),
		}
		return job
	}
	log.Info("Ingestion complete", "filename", result.Filename, "chunks", result.TotalChunks, "replaced", result.Replaced)
	job.Result = &result
	return job
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "job id", job.Id, "err", err)
	}
	return job
}
