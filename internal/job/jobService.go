package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var ErrQueueUnavailable = errors.New("ingest queue unavailable")

// Service owns the ingest queue shared by the upload handler and the worker pool.
// JobStore always holds the latest state of a job, so the status endpoint can
// answer before a worker has picked it up.
type Service struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore

	submitted int64
	logger    *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// NewIngestJob is the queued record for an upload staged at stagedPath.
func NewIngestJob(id, traceId, stagedPath, documentName string) jobModel.Job {
	return jobModel.Job{
		Id:          id,
		TraceId:     traceId,
		JobType:     jobModel.JobTypeIngest,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobPayload: jobModel.JobPayload{
			IngestFileName: documentName,
			IngestURL:      stagedPath,
		},
	}
}

// Submit saves j as queued and then blocks until the queue takes it or ctx ends.
// A job abandoned on ctx is saved again as a retryable error.
func (s *Service) Submit(ctx context.Context, j jobModel.Job) error {
	if s.JobChannel == nil || s.JobStore == nil {
		return ErrQueueUnavailable
	}
	log := s.log().WithTrace(ctx).With("job id", j.Id)

	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Could not save queued job", "error", err)
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	metrics.IncrementJobsInQueue()
	select {
	case s.JobChannel <- j:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		log.Warn("Gave up waiting for queue space", "queued", len(s.JobChannel), "error", ctx.Err())
		j.Status = jobModel.JobStatusError
		j.CurrentStep = jobModel.Error
		j.EndTime = time.Now()
		j.Error = jobModel.JobError{Code: http.StatusServiceUnavailable, Message: "ingest queue is full", Retry: true}
		if err := s.JobStore.SaveJob(context.WithoutCancel(ctx), j); err != nil {
			log.Error("Could not record abandoned job", "error", err)
		}
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, ctx.Err())
	}

	count := atomic.AddInt64(&s.submitted, 1)
	log.Info("Queued ingest job", "filename", j.JobPayload.IngestFileName, "submitted", count)
	s.signalDispatcher(log)
	return nil
}

// Submitted counts jobs that reached the queue since start.
func (s *Service) Submitted() int64 {
	return atomic.LoadInt64(&s.submitted)
}

// Lookup returns the latest recorded state of a job.
func (s *Service) Lookup(ctx context.Context, id string) (jobModel.Job, bool) {
	if s.JobStore == nil {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

// every upload asks for another worker, the pool caps itself and idle workers retire
func (s *Service) signalDispatcher(log *logger_i.Logger) {
	if s.DispatcherChannel == nil {
		return
	}
	metrics.StartDispatcherSignalCount()
	select {
	case s.DispatcherChannel <- true:
	default:
		log.Debug("Dispatcher busy, skipping worker signal")
	}
}

func (s *Service) log() *logger_i.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger_i.NewLogger("JobService")
}
