package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "potato"

// Prediction error kinds used as label values
const (
	ErrorKindUnavailable   = "service_unavailable"
	ErrorKindInvalidFormat = "invalid_format"
	ErrorKindDecode        = "decode_error"
	ErrorKindInference     = "inference_error"
	ErrorKindTooManyItems  = "too_many_items"
)

var (
	requestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"path", "method", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"},
	)
	predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by predicted class",
		}, []string{"class"},
	)
	predictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind",
		}, []string{"kind"},
	)
	inferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Time spent in the model runtime per image",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of images per batch request",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)
)

// ObserveRequest records one handled HTTP request
func ObserveRequest(path, method string, status int, d time.Duration) {
	requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(path).Observe(d.Seconds())
}

// ObservePrediction records a successful prediction
func ObservePrediction(class string, d time.Duration) {
	predictions.WithLabelValues(class).Inc()
	inferenceDuration.Observe(d.Seconds())
}

// ObservePredictionError records a failed prediction
func ObservePredictionError(kind string) {
	predictionErrors.WithLabelValues(kind).Inc()
}

// ObserveBatchSize records the size of an accepted batch
func ObserveBatchSize(n int) {
	batchSize.Observe(float64(n))
}
