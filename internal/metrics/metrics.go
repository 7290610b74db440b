// Package metrics exposes Prometheus instrumentation for notebook engines.
//
// Each Collector owns a private registry so several notebooks (or tests) can
// coexist in one process without duplicate-registration panics. A nil
// *Collector is valid and records nothing.
package metrics

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const namespace = "notelog"

// Collector records transition and load statistics.
type Collector struct {
	registry *prometheus.Registry

	accepted        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	replaySkipped   prometheus.Counter
	loadRecovered   prometheus.Counter
	annotationsLive prometheus.Gauge
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_accepted_total",
			Help:      "Annotation events accepted by a state machine.",
		}, []string{"event"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_rejected_total",
			Help:      "Annotation events rejected by a state machine.",
		}, []string{"event"}),
		replaySkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_skipped_total",
			Help:      "Transition records skipped while replaying a stored log.",
		}),
		loadRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_recovered_total",
			Help:      "Notebook loads that fell back to the empty default document.",
		}),
		annotationsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "annotations_live",
			Help:      "Annotations currently held by the manager.",
		}),
	}
	c.registry.MustRegister(c.accepted, c.rejected, c.replaySkipped, c.loadRecovered, c.annotationsLive)
	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Accepted counts one accepted event.
func (c *Collector) Accepted(event string) {
	if c == nil {
		return
	}
	c.accepted.WithLabelValues(event).Inc()
}

// Rejected counts one rejected event.
func (c *Collector) Rejected(event string) {
	if c == nil {
		return
	}
	c.rejected.WithLabelValues(event).Inc()
}

// ReplaySkipped counts n skipped replay records.
func (c *Collector) ReplaySkipped(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.replaySkipped.Add(float64(n))
}

// LoadRecovered counts one load that substituted the empty default.
func (c *Collector) LoadRecovered() {
	if c == nil {
		return
	}
	c.loadRecovered.Inc()
}

// SetLive records the number of live annotations.
func (c *Collector) SetLive(n int) {
	if c == nil {
		return
	}
	c.annotationsLive.Set(float64(n))
}

// WriteText writes every gathered metric in the Prometheus text format.
// A nil collector writes nothing.
func (c *Collector) WriteText(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
