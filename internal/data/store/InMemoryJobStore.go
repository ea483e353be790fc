package store

import (
	"context"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/patrickmn/go-cache"
)

var inMemLogger = logger_i.NewLogger("InMem Job Store")

// InMemoryJobStore is the fallback when Redis is offline. Jobs expire after
// the same TTL the Redis store uses, so a long-running API does not keep
// every finished upload forever.
type InMemoryJobStore struct {
	jobs *cache.Cache
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return InitInMemoryJobStoreWithTTL(config.RedisJobStoreTTL)
}

func InitInMemoryJobStoreWithTTL(ttl time.Duration) *InMemoryJobStore {
	return &InMemoryJobStore{jobs: cache.New(ttl, ttl/2)}
}

// SaveJob replaces the stored state and restarts the job's TTL.
func (store *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	store.jobs.SetDefault(job.Id, job)
	inMemLogger.WithTrace(ctx).Debug("Saved job", "job id", job.Id, "status", job.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	value, found := store.jobs.Get(jobId)
	if !found {
		inMemLogger.WithTrace(ctx).Debug("Job not found", "job id", jobId)
		return jobModel.Job{}, false
	}
	return value.(jobModel.Job), true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobs.Delete(jobID)
}
