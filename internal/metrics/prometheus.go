package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name when no namespace is given.
const DefaultNamespace = "waitforit"

// Prometheus implements Collector on a private registry.
type Prometheus struct {
	bootDuration        prometheus.Histogram
	bootFailures        *prometheus.CounterVec
	waits               *prometheus.CounterVec
	waitDuration        prometheus.Histogram
	terminationDuration prometheus.Histogram

	registry *prometheus.Registry
}

// Boot and wait times range from a few milliseconds to the timeout, which is
// rarely above a minute.
var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// NewPrometheus creates a collector whose metric names start with namespace.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		bootDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boot_duration_seconds",
			Help:      "Time from spawn until the ready pattern appeared",
			Buckets:   durationBuckets,
		}),
		bootFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boot_failures_total",
			Help:      "Total number of sessions that failed to boot",
		}, []string{"reason"}),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_total",
			Help:      "Total number of waits issued after boot",
		}, []string{"result"}),
		waitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_duration_seconds",
			Help:      "Duration of waits issued after boot",
			Buckets:   durationBuckets,
		}),
		terminationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "termination_duration_seconds",
			Help:      "Time taken to stop the process on close",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	p.registry.MustRegister(
		p.bootDuration,
		p.bootFailures,
		p.waits,
		p.waitDuration,
		p.terminationDuration,
	)
	return p
}

func (p *Prometheus) BootSucceeded(d time.Duration) {
	p.bootDuration.Observe(d.Seconds())
}

func (p *Prometheus) BootFailed(reason string, d time.Duration) {
	p.bootFailures.WithLabelValues(reason).Inc()
	p.bootDuration.Observe(d.Seconds())
}

func (p *Prometheus) WaitFinished(matched bool, d time.Duration) {
	result := "timeout"
	if matched {
		result = "matched"
	}
	p.waits.WithLabelValues(result).Inc()
	p.waitDuration.Observe(d.Seconds())
}

func (p *Prometheus) ProcessTerminated(d time.Duration) {
	p.terminationDuration.Observe(d.Seconds())
}

// Registry returns the registry the metrics live on, for an HTTP handler or
// for gathering in tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

var _ Collector = (*Prometheus)(nil)
