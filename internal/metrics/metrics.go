// Package metrics exposes prometheus instrumentation for acquisition,
// training, recommendation and HTTP serving.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// YouTube API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_youtube_requests_total",
			Help: "Total number of YouTube API requests",
		},
		[]string{"endpoint", "result"}, // result: ok or a provider error kind
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mytube_youtube_request_duration_seconds",
			Help:    "Duration of YouTube API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mytube_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Acquisition
	VideosAcquired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mytube_videos_acquired_total",
			Help: "Total number of new videos persisted by acquisition",
		},
	)

	VideosFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mytube_videos_filtered_total",
			Help: "Total number of videos dropped by the relevance filter",
		},
	)

	AcquisitionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_acquisition_failures_total",
			Help: "Total number of failed search, details or feed calls",
		},
		[]string{"op"},
	)

	Replenishments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_replenishments_total",
			Help: "Total number of pool replenishments",
		},
		[]string{"result"}, // "ok", "error"
	)

	// Engine
	Retrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_retrains_total",
			Help: "Total number of classifier training attempts",
		},
		[]string{"result"}, // "ok", "degenerate", "error"
	)

	TrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mytube_train_duration_seconds",
			Help:    "Duration of classifier training in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mytube_model_version",
			Help: "Version of the active classifier snapshot (0 when cold)",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_recommendations_total",
			Help: "Total number of recommendation lists served",
		},
		[]string{"state"}, // "cold", "trained"
	)

	Ratings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_ratings_total",
			Help: "Total number of ratings recorded",
		},
		[]string{"label"}, // "like", "dislike"
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mytube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mytube_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordAPIRequest records one YouTube API call.
func RecordAPIRequest(endpoint, result string, duration time.Duration) {
	APIRequests.WithLabelValues(endpoint, result).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTraining records a training attempt.
func RecordTraining(result string, duration time.Duration) {
	Retrains.WithLabelValues(result).Inc()
	TrainDuration.Observe(duration.Seconds())
}

// RecordRating records a rating by label.
func RecordRating(liked bool) {
	if liked {
		Ratings.WithLabelValues("like").Inc()
		return
	}
	Ratings.WithLabelValues("dislike").Inc()
}
