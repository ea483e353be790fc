package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of ingest jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var skippedChunks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "retriever_skipped_chunks_total",
	Help: "Stored chunks skipped during scoring, labelled by reason",
}, []string{"reason"})

var embeddingRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "embedding_retries_total",
	Help: "Embedding calls retried after a transient failure",
})

var ingestOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_documents_total",
	Help: "Ingestion attempts labelled by outcome",
}, []string{"outcome"})

var imageWarnings = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingest_image_warnings_total",
	Help: "Ingestions whose best-effort image stage failed",
})

var answerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "answers_total",
	Help: "Answered questions labelled by outcome",
}, []string{"outcome"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func IncrementSkippedChunks(reason string) {
	skippedChunks.WithLabelValues(reason).Inc()
}

func IncrementEmbeddingRetries() {
	embeddingRetries.Inc()
}

func CountIngest(outcome string) {
	ingestOutcomes.WithLabelValues(outcome).Inc()
}

func IncrementImageWarnings() {
	imageWarnings.Inc()
}

func CountAnswer(outcome string) {
	answerOutcomes.WithLabelValues(outcome).Inc()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent processing an ingest job.",
	Buckets: []float64{.5, 1, 5, 10, 30, 60, 300},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service and storage calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
