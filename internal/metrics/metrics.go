package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthEvents counts register/login/logout attempts by outcome.
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tombers_auth_events_total",
			Help: "Authentication events by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	// ProjectMutations counts successful project writes by operation (create, update, delete).
	ProjectMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tombers_project_mutations_total",
			Help: "Project mutations by operation",
		},
		[]string{"op"},
	)

	// StoreWrites counts whole-file rewrites per JSON store.
	StoreWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tombers_store_writes_total",
			Help: "Whole-document writes per JSON store",
		},
		[]string{"store"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthEvents, ProjectMutations, StoreWrites)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/projects/123 -> /api/projects/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuthEvent records an auth event, e.g. ("login", "failure").
func IncAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

func IncProjectMutation(op string) {
	ProjectMutations.WithLabelValues(op).Inc()
}

func IncStoreWrites(store string) {
	StoreWrites.WithLabelValues(store).Inc()
}
