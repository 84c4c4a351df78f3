package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apmwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apmwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apmwire",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Encode and decode calls by message variant and result.",
		},
		[]string{"op", "variant", "result"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apmwire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Bytes produced by encode and consumed by decode.",
		},
		[]string{"op"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOperations, codecBytes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one encode or decode call. n is the number of bytes
// produced or consumed; it is ignored on failure.
func RecordCodec(op, variant string, n int, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	codecOperations.WithLabelValues(op, variant, result).Inc()
	if err == nil && n > 0 {
		codecBytes.WithLabelValues(op).Add(float64(n))
	}
}
