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
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var ingestOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "document_ingest_total",
	Help: "Document ingestions labelled by outcome",
}, []string{"outcome"})

var consistencyGaps = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vector_consistency_gap_total",
	Help: "Committed documents whose vectors could not be published immediately",
})

var outboxDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "vector_outbox_pending",
	Help: "Vector index writes waiting for the reconciler",
})

var outboxDeadLetters = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vector_outbox_dead_letter_total",
	Help: "Outbox records given up on after exhausting their attempts",
})

var chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_turns_total",
	Help: "Chat turns labelled by whether retrieval produced context",
}, []string{"context"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (the mcp endpoint) working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementIngestOutcome(outcome string) {
	ingestOutcomes.WithLabelValues(outcome).Inc()
}

func IncrementConsistencyGap() {
	consistencyGaps.Inc()
}

func SetOutboxDepth(n int) {
	outboxDepth.Set(float64(n))
}

func IncrementOutboxDeadLetter() {
	outboxDeadLetters.Inc()
}

func IncrementChatTurn(hasContext bool) {
	label := "empty"
	if hasContext {
		label = "retrieved"
	}
	chatTurns.WithLabelValues(label).Inc()
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

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ingest_job_duration_seconds",
	Help:    "Total time spent processing an ingest job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
