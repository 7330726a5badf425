package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "struct_mapper"

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultOK    = "ok"
	resultError = "error"
)

type metrics struct {
	lookups      *prometheus.CounterVec
	compilations *prometheus.CounterVec
	compileTime  prometheus.Histogram
	mappers      prometheus.Gauge
}

// newMetrics registers the cache metrics. A nil registerer keeps them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Mapper lookups by result (hit, miss).",
		}, []string{"result"}),
		compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "compilations_total",
			Help:      "Mapper compilations by result (ok, error).",
		}, []string{"result"}),
		compileTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "compile_duration_seconds",
			Help:      "Time spent building and compiling a mapper.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs to ~400ms
		}),
		mappers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "mappers",
			Help:      "Number of compiled mappers currently cached.",
		}),
	}
}
