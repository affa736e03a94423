package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interview"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	oracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oracle_calls_total",
		Help:      "Oracle calls by operation and outcome",
	}, []string{"op", "outcome"})

	oracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "oracle_call_duration_seconds",
		Help:      "Oracle call duration in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
	}, []string{"op"})

	answersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_submitted_total",
		Help:      "Answers recorded, split by manual and automatic submission",
	}, []string{"mode"})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_completed_total",
		Help:      "Interview sessions that reached the completed state",
	})

	candidatesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_created_total",
		Help:      "Candidates created from resume uploads",
	})

	snapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_saves_total",
		Help:      "Store snapshot writes by backend and outcome",
	}, []string{"backend", "outcome"})
)

// ObserveHTTP records one handled request.
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveOracleCall records one oracle call. A zero elapsed skips the latency sample.
func ObserveOracleCall(op, outcome string, elapsed time.Duration) {
	oracleCalls.WithLabelValues(op, outcome).Inc()
	if elapsed > 0 {
		oracleLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

// IncAnswerSubmitted counts a recorded answer; auto marks timer expiry.
func IncAnswerSubmitted(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	answersSubmitted.WithLabelValues(mode).Inc()
}

// IncSessionCompleted counts a session reaching completed.
func IncSessionCompleted() {
	sessionsCompleted.Inc()
}

// IncCandidateCreated counts a new candidate.
func IncCandidateCreated() {
	candidatesCreated.Inc()
}

// ObserveSnapshotSave counts a snapshot write.
func ObserveSnapshotSave(backend string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	snapshotSaves.WithLabelValues(backend, outcome).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
