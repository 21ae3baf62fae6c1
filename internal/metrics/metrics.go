// Package metrics declares the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Inference Metrics
// =============================================================================

var (
	// PredictionsTotal counts predictions by source (classifier, dictionary, none) and status.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudra_predictions_total",
			Help: "Total number of sign predictions by source and status",
		},
		[]string{"source", "status"}, // "classifier", "dictionary", "none" | "ok", "error", "unknown"
	)

	// PredictionDuration tracks prediction latency by source.
	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mudra_prediction_duration_seconds",
			Help:    "Time spent predicting a sign from landmarks",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"source"},
	)

	// PredictionConfidence tracks the distribution of returned confidences.
	PredictionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mudra_prediction_confidence",
			Help:    "Confidence of returned predictions",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// DictionarySize is the number of loaded reference signs.
	DictionarySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudra_dictionary_size",
			Help: "Number of reference signs in the loaded dictionary",
		},
	)

	// ClassifierLoaded is 1 when a trained classifier is available.
	ClassifierLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mudra_classifier_loaded",
			Help: "Whether a trained classifier is loaded (1) or not (0)",
		},
	)

	// LoadFailuresTotal counts artifacts that failed to load at startup.
	LoadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudra_load_failures_total",
			Help: "Total number of model or dictionary load failures",
		},
		[]string{"artifact"}, // "model", "dictionary"
	)
)

// =============================================================================
// HTTP Metrics
// =============================================================================

var (
	// HTTPRequestsTotal counts handled requests by route, method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration tracks request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mudra_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// FramesTotal counts frames submitted for hand detection by outcome.
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudra_frames_total",
			Help: "Total number of frames submitted for hand detection",
		},
		[]string{"outcome"}, // "hand", "no_hand", "decode_error", "detect_error"
	)

	// LiveFramesTotal counts frames read by live capture sessions by outcome.
	LiveFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mudra_live_frames_total",
			Help: "Total number of frames read by live sessions",
		},
		[]string{"outcome"}, // "still", "hand", "no_hand", "error"
	)

	// LiveResultsTotal counts signs reported by live sessions.
	LiveResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mudra_live_results_total",
			Help: "Total number of stable signs reported by live sessions",
		},
	)
)

// BoolGauge converts a flag to a gauge value.
func BoolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
