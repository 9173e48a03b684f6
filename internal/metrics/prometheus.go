package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the AudioLink gateway
type Metrics struct {
	// Encode pipeline metrics
	EncodeRequests prometheus.Counter
	EncodeDuration prometheus.Histogram
	EncodedBytes   prometheus.Histogram

	// Decode pipeline metrics
	DecodeRequests prometheus.Counter
	DecodeOutcomes *prometheus.CounterVec
	DecodeDuration prometheus.Histogram
	UploadBytes    prometheus.Histogram

	// Modem pool metrics
	ModemInFlight    prometheus.Gauge
	ModemPoolWaits   prometheus.Counter
	ModemExhaustions prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Encode pipeline metrics
		EncodeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audiolink_encode_requests_total",
			Help: "Total number of encode requests",
		}),
		EncodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audiolink_encode_duration_seconds",
			Help:    "Duration of encode pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		EncodedBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audiolink_encoded_container_bytes",
			Help:    "Size of generated audio containers in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		// Decode pipeline metrics
		DecodeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audiolink_decode_requests_total",
			Help: "Total number of decode requests",
		}),
		DecodeOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audiolink_decode_outcomes_total",
			Help: "Decode outcomes by kind",
		}, []string{"outcome"}),
		DecodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audiolink_decode_duration_seconds",
			Help:    "Duration of decode pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		}),
		UploadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audiolink_upload_bytes",
			Help:    "Size of uploaded audio blobs in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 15), // 1KB to ~16MB
		}),

		// Modem pool metrics
		ModemInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "audiolink_modem_in_flight",
			Help: "Current number of in-flight modem operations",
		}),
		ModemPoolWaits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audiolink_modem_pool_waits_total",
			Help: "Total number of modem pool acquisitions",
		}),
		ModemExhaustions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audiolink_modem_pool_exhaustions_total",
			Help: "Total number of requests rejected because the modem pool stayed busy",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audiolink_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audiolink_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audiolink_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordEncode records a completed encode pipeline run
func (m *Metrics) RecordEncode(durationSeconds float64, containerBytes int) {
	m.EncodeRequests.Inc()
	m.EncodeDuration.Observe(durationSeconds)
	m.EncodedBytes.Observe(float64(containerBytes))
}

// RecordDecode records a completed decode pipeline run with its outcome
// ("decoded", "no_signal", "malformed", "timeout", "rejected", "error")
func (m *Metrics) RecordDecode(outcome string, durationSeconds float64, uploadBytes int) {
	m.DecodeRequests.Inc()
	m.DecodeOutcomes.WithLabelValues(outcome).Inc()
	m.DecodeDuration.Observe(durationSeconds)
	m.UploadBytes.Observe(float64(uploadBytes))
}

// SetModemInFlight sets the current number of in-flight modem operations
func (m *Metrics) SetModemInFlight(count int) {
	m.ModemInFlight.Set(float64(count))
}

// RecordPoolWait increments the pool acquisition counter
func (m *Metrics) RecordPoolWait() {
	m.ModemPoolWaits.Inc()
}

// RecordPoolExhaustion increments the pool exhaustion counter
func (m *Metrics) RecordPoolExhaustion() {
	m.ModemExhaustions.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
