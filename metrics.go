// FILE: lixenwraith/cascade/metrics.go
package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Registry.
// A nil *Metrics records nothing.
type Metrics struct {
	lookups       *prometheus.CounterVec
	filesLoaded   *prometheus.CounterVec
	loadErrors    *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	flushes       prometheus.Counter
	callbackFires prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registerer.
//
// This should be called once per registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Merged config lookups by cache result (hit, miss)",
		}, []string{"result"}),

		filesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "files",
			Name:      "loaded_total",
			Help:      "Config files read and decoded, by file type",
		}, []string{"type"}),

		loadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "files",
			Name:      "errors_total",
			Help:      "Failed config builds, by stage (stat, read, parse, weave)",
		}, []string{"stage"}),

		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "cache",
			Name:      "reloads_total",
			Help:      "Configs rebuilt after a detected file change, by name",
		}, []string{"name"}),

		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "cache",
			Name:      "flushes_total",
			Help:      "Full cache flushes",
		}),

		callbackFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "callbacks",
			Name:      "invocations_total",
			Help:      "On-load callback invocations",
		}),
	}

	registerer.MustRegister(
		m.lookups,
		m.filesLoaded,
		m.loadErrors,
		m.reloads,
		m.flushes,
		m.callbackFires,
	)

	return m
}

func (m *Metrics) lookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.lookups.WithLabelValues("hit").Inc()
	} else {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) fileLoaded(ext string) {
	if m == nil {
		return
	}
	m.filesLoaded.WithLabelValues(ext).Inc()
}

func (m *Metrics) loadError(stage string) {
	if m == nil {
		return
	}
	m.loadErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) reloaded(name string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(name).Inc()
}

func (m *Metrics) flushed() {
	if m == nil {
		return
	}
	m.flushes.Inc()
}

func (m *Metrics) callbackFired() {
	if m == nil {
		return
	}
	m.callbackFires.Inc()
}
