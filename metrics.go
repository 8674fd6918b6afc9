package waitforit

import "github.com/giantswarm/waitforit/internal/metrics"

// MetricsCollector receives session lifecycle timings. See WithMetrics.
type MetricsCollector = metrics.Collector

// PrometheusMetrics is a MetricsCollector backed by Prometheus metrics on a
// private registry. Expose its Registry() with promhttp, or gather it in a
// test.
type PrometheusMetrics = metrics.Prometheus

// NewPrometheusMetrics creates a PrometheusMetrics whose metric names start
// with namespace. An empty namespace uses "waitforit".
//
// One collector can be shared by any number of sessions.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	return metrics.NewPrometheus(namespace)
}
