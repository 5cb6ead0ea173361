// Package metrics holds the process wide prometheus registry and the event counter
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter records named events; services depend on this, not on prometheus
type Counter interface {
	Increment(name string)
}

// Registry owns the collectors served on /metrics
type Registry struct {
	reg    *prometheus.Registry
	events *prometheus.CounterVec
	durs   *prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// New builds an isolated registry with process and go collectors
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	r := &Registry{
		reg: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Named application events, for example cloud-tasks.account-delete.enqueue.success",
		}, []string{"name"}),
		durs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of account deletion steps",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "outcome"}),
	}
	reg.MustRegister(r.events, r.durs)
	return r
}

// Default returns the shared "reaper" registry
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New("reaper") })
	return defaultReg
}

// Increment bumps the events counter for name
func (r *Registry) Increment(name string) {
	r.events.WithLabelValues(name).Inc()
}

// Observe records how long step took; outcome is "ok" or "error"
func (r *Registry) Observe(step string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.durs.WithLabelValues(step, outcome).Observe(seconds)
}

// Handler serves the registry in the prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Nop discards events
type Nop struct{}

// Increment implements Counter
func (Nop) Increment(string) {}
