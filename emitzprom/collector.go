// Package emitzprom exports emitz emitter metrics to Prometheus.
//
//	events := emitz.New()
//	collector := emitzprom.NewCollector("myapp")
//	collector.Add("orders", events)
//	prometheus.MustRegister(collector)
package emitzprom

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/emitz"
)

// Source is anything that reports emitz metrics, normally *emitz.Emitter.
type Source interface {
	Metrics() emitz.Metrics
}

// Collector is a prometheus.Collector over any number of named sources.
// Each source is reported with an "emitter" label.
type Collector struct {
	mu      sync.RWMutex
	sources map[string]Source

	emitted     *prometheus.Desc
	unheard     *prometheus.Desc
	invocations *prometheus.Desc
	failures    *prometheus.Desc
	added       *prometheus.Desc
	removed     *prometheus.Desc
	warnings    *prometheus.Desc
	listeners   *prometheus.Desc
	events      *prometheus.Desc
}

// NewCollector returns an empty collector whose metrics are prefixed with
// namespace and the "emitz" subsystem.
func NewCollector(namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "emitz", name),
			help,
			[]string{"emitter"},
			nil,
		)
	}

	return &Collector{
		sources:     make(map[string]Source),
		emitted:     desc("emits_total", "Emit calls that reached at least one listener"),
		unheard:     desc("unheard_emits_total", "Emit calls for keys without listeners"),
		invocations: desc("listener_invocations_total", "Listener calls made by Emit"),
		failures:    desc("unhandled_errors_total", "Error events emitted without listeners"),
		added:       desc("listeners_added_total", "Listeners registered"),
		removed:     desc("listeners_removed_total", "Listeners removed"),
		warnings:    desc("max_listeners_warnings_total", "MaxListenersExceeded warnings raised"),
		listeners:   desc("listeners", "Listeners currently registered"),
		events:      desc("events", "Event keys with at least one listener"),
	}
}

// Add registers a source under name, replacing any previous source with
// the same name.
func (c *Collector) Add(name string, s Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = s
}

// Remove stops reporting the named source.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.emitted, c.unheard, c.invocations, c.failures,
		c.added, c.removed, c.warnings, c.listeners, c.events,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sources := make([]Source, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		sources = append(sources, c.sources[name])
	}
	c.mu.RUnlock()

	for i, s := range sources {
		name := names[i]
		m := s.Metrics()

		counter := func(d *prometheus.Desc, v int64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), name)
		}
		gauge := func(d *prometheus.Desc, v int64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), name)
		}

		counter(c.emitted, m.Emitted)
		counter(c.unheard, m.Unheard)
		counter(c.invocations, m.Invocations)
		counter(c.failures, m.Failures)
		counter(c.added, m.Added)
		counter(c.removed, m.Removed)
		counter(c.warnings, m.Warnings)
		gauge(c.listeners, m.Listeners)
		gauge(c.events, m.Events)
	}
}
