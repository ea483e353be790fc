package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/redisStore"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *redisStore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, redisStore.NewStore(client)
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr, internalStore := newRedisStore(t)
	jobStore := store.NewRedisJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeIngest,
		Status:  jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{
			IngestFileName: "network.pdf",
		},
		Result: &commonModels.IngestResult{Filename: "network.pdf", PageCount: 3, TotalChunks: 7},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		require.NoError(t, jobStore.SaveJob(ctx, testJob))

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		require.True(t, found, "job was saved but not found in Redis")
		assert.Equal(t, testJob.JobPayload, retrievedJob.JobPayload)
		require.NotNil(t, retrievedJob.Result)
		assert.Equal(t, 7, retrievedJob.Result.TotalChunks)
		assert.Equal(t, config.RedisJobStoreTTL, mr.TTL("job:"+jobID))
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		assert.False(t, found)
	})

	t.Run("Corrupt value is not found", func(t *testing.T) {
		require.NoError(t, mr.Set("job:broken", "{not json"))
		_, found := jobStore.GetJob(ctx, "broken")
		assert.False(t, found)
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		assert.False(t, mr.Exists("job:"+jobID), "job still exists in Redis after DeleteJob")
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	_, internalStore := newRedisStore(t)
	jobStore := store.NewRedisJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	_, found := jobStore.GetJob(ctx, "race-job")
	assert.True(t, found)
}

func TestInMemoryJobStore(t *testing.T) {
	ctx := context.Background()
	jobStore := store.InitInMemoryJobStore()

	require.NoError(t, jobStore.SaveJob(ctx, jobModel.Job{Id: "a", Status: jobModel.JobStatusQueued}))
	got, found := jobStore.GetJob(ctx, "a")
	require.True(t, found)
	assert.Equal(t, jobModel.JobStatusQueued, got.Status)

	jobStore.DeleteJob(ctx, "a")
	_, found = jobStore.GetJob(ctx, "a")
	assert.False(t, found)
}

func TestInMemoryJobStore_Expiry(t *testing.T) {
	ctx := context.Background()
	jobStore := store.InitInMemoryJobStoreWithTTL(30 * time.Millisecond)

	require.NoError(t, jobStore.SaveJob(ctx, jobModel.Job{Id: "old", Status: jobModel.JobStatusComplete}))
	time.Sleep(60 * time.Millisecond)
	_, found := jobStore.GetJob(ctx, "old")
	assert.False(t, found, "expired job should be gone")

	require.NoError(t, jobStore.SaveJob(ctx, jobModel.Job{Id: "fresh", Status: jobModel.JobStatusQueued}))
	require.NoError(t, jobStore.SaveJob(ctx, jobModel.Job{Id: "fresh", Status: jobModel.JobStatusRunning}))
	got, found := jobStore.GetJob(ctx, "fresh")
	require.True(t, found)
	assert.Equal(t, jobModel.JobStatusRunning, got.Status)
}
