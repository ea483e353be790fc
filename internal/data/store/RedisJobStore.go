package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/redisStore"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

const jobKeyPrefix = "job:"

// RedisJobStore keeps each job as JSON under job:<id>. Every save restarts the
// key's config.RedisJobStoreTTL, so a job expires a day after its last change.
type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisJobStore(ctx context.Context, cfg config.RedisConfig) (*RedisJobStore, error) {
	s, err := redisStore.GetRedisStore(ctx, cfg, config.RedisJobStore)
	if err != nil {
		return nil, err
	}
	return NewRedisJobStore(s), nil
}

func NewRedisJobStore(s *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  s,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.WithTrace(ctx).With("job id", job.Id)
	log.Debug("saving job")
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.Id, err)
	}

	err = s.store.Set(ctx, jobKeyPrefix+job.Id, data, config.RedisJobStoreTTL)
	if err == nil {
		log.Debug("Saved job to Redis")
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.WithTrace(ctx).With("job id", jobId)
	log.Debug("getting job")
	val, err := s.store.Get(ctx, jobKeyPrefix+jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Error reading job from Redis", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Stored job is not valid json", "error", err)
		return job, false
	}

	log.Debug("Job found in Redis")
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if _, err := s.store.Del(ctx, jobKeyPrefix+jobID); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}
