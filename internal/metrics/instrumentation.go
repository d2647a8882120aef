// Package metrics publishes Prometheus metrics for lookups and database refreshes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	FOUND     = "FOUND"
	NOT_FOUND = "NOT_FOUND"
	MALFORMED = "MALFORMED"
	ERROR     = "ERROR"
	OK        = "OK"
)

// Instrumentation holds the metric vectors of the service.
type Instrumentation struct {
	lookups        *prometheus.CounterVec
	batchSize      prometheus.Histogram
	updateRuns     *prometheus.CounterVec
	databaseBuilt  prometheus.Gauge
	handoffPending prometheus.Gauge
}

// NewInstrumentation registers all metrics on reg, including the Go runtime
// and process collectors.
func NewInstrumentation(reg prometheus.Registerer) *Instrumentation {
	inst := &Instrumentation{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxylookup",
			Name:      "lookups_total",
			Help:      "Lookups by endpoint and result",
		}, []string{"endpoint", "result"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proxylookup",
			Name:      "batch_size",
			Help:      "Number of addresses per batch request",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		updateRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxylookup",
			Name:      "update_runs_total",
			Help:      "Update procedure runs by result",
		}, []string{"result"}),
		databaseBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "proxylookup",
			Name:      "database_build_timestamp_seconds",
			Help:      "Build time of the database being served",
		}),
		handoffPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "proxylookup",
			Name:      "handoff_pending",
			Help:      "1 once a restart has been requested",
		}),
	}

	reg.MustRegister(
		inst.lookups,
		inst.batchSize,
		inst.updateRuns,
		inst.databaseBuilt,
		inst.handoffPending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return inst
}

// ObserveLookup counts one lookup outcome. Nil-safe.
func (i *Instrumentation) ObserveLookup(endpoint, result string) {
	if i == nil {
		return
	}
	i.lookups.WithLabelValues(endpoint, result).Inc()
}

// ObserveBatch records the size of a batch request. Nil-safe.
func (i *Instrumentation) ObserveBatch(size int) {
	if i == nil {
		return
	}
	i.batchSize.Observe(float64(size))
}

// ObserveUpdate counts one update procedure run. Nil-safe.
func (i *Instrumentation) ObserveUpdate(err error) {
	if i == nil {
		return
	}
	result := OK
	if err != nil {
		result = ERROR
	}
	i.updateRuns.WithLabelValues(result).Inc()
}

// SetDatabaseBuilt publishes the build time of the open database. Nil-safe.
func (i *Instrumentation) SetDatabaseBuilt(t time.Time) {
	if i == nil {
		return
	}
	i.databaseBuilt.Set(float64(t.Unix()))
}

// SetHandoffPending flags that the process is about to be replaced. Nil-safe.
func (i *Instrumentation) SetHandoffPending() {
	if i == nil {
		return
	}
	i.handoffPending.Set(1)
}
