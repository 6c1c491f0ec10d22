package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for protocol requests.
const (
	OutcomeOK        = "ok"
	OutcomeMalformed = "malformed"
)

var (
	registerOnce sync.Once

	protocolRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shiftctl",
			Subsystem: "protocol",
			Name:      "requests_total",
			Help:      "Protocol requests by schema, operation and outcome.",
		},
		[]string{"schema", "op", "outcome"},
	)
	protocolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shiftctl",
			Subsystem: "protocol",
			Name:      "request_duration_seconds",
			Help:      "Protocol request handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"schema", "op"},
	)
	malformedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shiftctl",
			Subsystem: "protocol",
			Name:      "malformed_frames_total",
			Help:      "Frames rejected before reaching a handler.",
		},
		[]string{"schema"},
	)
	openSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shiftctl",
			Subsystem: "session",
			Name:      "open",
			Help:      "Currently open protocol connections.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shiftctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shiftctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	adminDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shiftctl",
			Subsystem: "http",
			Name:      "denied_total",
			Help:      "Admin HTTP requests rejected by the bearer guard.",
		},
		[]string{"service", "path"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			protocolRequests,
			protocolDuration,
			malformedFrames,
			openSessions,
			httpRequests,
			httpDuration,
			adminDenied,
		)
	})
}

// RecordProtocolRequest counts one handled request. outcome is OutcomeOK or
// the label of the protocol error returned.
func RecordProtocolRequest(schema, op, outcome string, duration time.Duration) {
	RegisterMetrics()
	protocolRequests.WithLabelValues(schema, op, outcome).Inc()
	protocolDuration.WithLabelValues(schema, op).Observe(duration.Seconds())
}

func RecordMalformedFrame(schema string) {
	RegisterMetrics()
	malformedFrames.WithLabelValues(schema).Inc()
}

// SessionOpened and SessionClosed track live connections.
func SessionOpened() {
	RegisterMetrics()
	openSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	openSessions.Dec()
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordAdminDenied(service, path string) {
	RegisterMetrics()
	adminDenied.WithLabelValues(service, path).Inc()
}
