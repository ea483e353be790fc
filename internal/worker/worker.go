package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/job"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var (
	_jobService        *job.Service
	_ragService        rag.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	workerSeq          int64
	logger             = logger_i.NewLogger("WorkerPool")
	limits             = config.WorkerConfig{
		Min:         config.MinWorkerCount,
		Max:         config.MaxWorkerCount,
		IdleTimeout: config.IdleWorkerTimeout,
	}
)

func InitServices(jobService *job.Service, ragService rag.Service) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

// SetLimits must run before InitWorkerPool.
func SetLimits(cfg config.WorkerConfig) {
	if cfg.Max < 1 || cfg.IdleTimeout <= 0 {
		return
	}
	limits = cfg
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool", "min", limits.Min, "max", limits.Max, "idleTimeout", limits.IdleTimeout)
	go dispatcher()
}

// dispatcher is the only goroutine that adds workers, so the count check
// and the add cannot interleave with another creation.
func dispatcher() {
	warm := max(limits.Min, 1)
	for atomic.LoadInt64(&currentWorkerCount) < warm {
		createWorker()
	}
	logger.Info("Dispatcher started", "workers", atomic.LoadInt64(&currentWorkerCount))

	for range dispatcherChannel {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count >= limits.Max {
			logger.Debug("Pool at capacity", "workers", count, "queued", len(_jobService.JobChannel))
			continue
		}
		createWorker()
	}
	logger.Info("Dispatcher stopped")
}

func createWorker() {
	id := atomic.AddInt64(&workerSeq, 1)
	workerWaitGroup.Add(1)
	count := atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker(id)
	logger.Info("Created new worker", "worker", id, "workers", count)
}

func worker(id int64) {
	idle := time.NewTimer(limits.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob, ok := <-_jobService.JobChannel:
			if !ok {
				removeWorker(id, "job channel closed", atomic.AddInt64(&currentWorkerCount, -1))
				return
			}
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(limits.IdleTimeout)

		case <-stopWorkerChannel:
			removeWorker(id, "stop signal received", atomic.AddInt64(&currentWorkerCount, -1))
			return

		case <-idle.C:
			if count, retired := retireIdle(); retired {
				removeWorker(id, "idle timeout", count)
				return
			}
			idle.Reset(limits.IdleTimeout)
		}
	}
}

// retireIdle claims one slot from the pool while more than limits.Min workers run.
func retireIdle() (int64, bool) {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= limits.Min {
			return count, false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			return count - 1, true
		}
	}
}
