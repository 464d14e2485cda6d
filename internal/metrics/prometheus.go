// Package metrics exposes Prometheus instrumentation for the commit
// pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all commit pipeline metrics.
type Registry struct {
	CommitsTotal  *prometheus.CounterVec
	ApplyDuration *prometheus.HistogramVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.CommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confplane_handler_commits_total",
		Help: "Commit handler runs by handler and result",
	}, []string{"handler", "result"})

	r.ApplyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "confplane_handler_apply_duration_seconds",
		Help:    "Time spent applying one handler's configuration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"handler"})

	return r
}

// HandlerResult implements session.Observer. Every handler run increments
// the commit counter and records its duration, labelled by outcome.
func (r *Registry) HandlerResult(commitID, handler string, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.CommitsTotal.WithLabelValues(handler, result).Inc()
	r.ApplyDuration.WithLabelValues(handler).Observe(took.Seconds())
}
