package handlers

import (
	"context"
	"sync"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/internal/job"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}
		logJH = logger_i.NewLogger("JobHandler")
		logJH.Info("Starting job handler")
	})
}

// CreateNewJob queues a staged upload. It blocks while the queue is full and
// gives up when ctx ends.
func CreateNewJob(ctx context.Context, newJob newJobData) error {
	if handlerInstance == nil {
		logJH.Error("Job handler not initialised, dropping ingest request", "job id", newJob.id)
		return job.ErrQueueUnavailable
	}
	logJH.WithTrace(ctx).Debug("To create new job", "job id", newJob.id, "document", newJob.documentName)
	queued := job.NewIngestJob(newJob.id, newJob.traceId, newJob.documentSource, newJob.documentName)
	return handlerInstance.service.Submit(ctx, queued)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	if handlerInstance == nil {
		return result, false
	}
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	return handlerInstance.service.Lookup(ctxC, id)
}
