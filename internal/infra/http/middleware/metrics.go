package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	prospectsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospects_created_total",
			Help: "Total number of draft prospects created",
		},
	)

	funnelStepsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_steps_saved_total",
			Help: "Total number of funnel steps saved",
		},
		[]string{"step"},
	)

	prospectsFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospects_finalized_total",
			Help: "Total number of prospects submitted",
		},
	)

	filesUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_uploaded_total",
			Help: "Total number of documents uploaded",
		},
		[]string{"category"},
	)

	registryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_errors_total",
			Help: "Total number of business registry lookup failures",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordProspectCreated() {
	prospectsCreated.Inc()
}

func RecordStepSaved(step int) {
	funnelStepsSaved.WithLabelValues(strconv.Itoa(step)).Inc()
}

func RecordProspectFinalized() {
	prospectsFinalized.Inc()
}

func RecordFileUploaded(category string) {
	filesUploaded.WithLabelValues(category).Inc()
}

func RecordRegistryError() {
	registryErrors.Inc()
}
