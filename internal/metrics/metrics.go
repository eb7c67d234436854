// Package metrics holds the Prometheus collectors for combination
// enumeration and plan persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK         = "ok"
	ResultError      = "error"
	ResultSuperseded = "superseded"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Combinations       prometheus.Gauge
	EnumerationSeconds prometheus.Histogram

	Saves        *prometheus.CounterVec
	Loads        *prometheus.CounterVec
	LoadDuration prometheus.Histogram

	CatalogFetches *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Combinations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "planner_combinations",
			Help: "Number of conflict-free combinations for the current selection",
		}),
		EnumerationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_enumeration_duration_seconds",
			Help:    "Time spent enumerating combinations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		Saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_plan_saves_total",
			Help: "Plan saves by result",
		}, []string{"result"}),
		Loads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_plan_loads_total",
			Help: "Plan loads by result",
		}, []string{"result"}),
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_plan_load_duration_seconds",
			Help:    "Time spent reconstructing a plan",
			Buckets: prometheus.DefBuckets,
		}),
		CatalogFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_catalog_fetches_total",
			Help: "Catalog discipline lookups by outcome (hit, miss, error)",
		}, []string{"outcome"}),
	}
}

// NewRegistry creates a private registry with all collectors registered.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	return reg, NewMetrics(reg)
}

// ObserveEnumeration records a combination rebuild.
func (m *Metrics) ObserveEnumeration(count int, took time.Duration) {
	if m == nil {
		return
	}
	m.Combinations.Set(float64(count))
	m.EnumerationSeconds.Observe(took.Seconds())
}

// ObserveSave counts a save by result.
func (m *Metrics) ObserveSave(result string) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(result).Inc()
}

// ObserveLoad counts a load by result and records its duration.
func (m *Metrics) ObserveLoad(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(result).Inc()
	m.LoadDuration.Observe(took.Seconds())
}

// ObserveCatalogFetch counts a catalog lookup ("hit", "miss" or "error").
func (m *Metrics) ObserveCatalogFetch(outcome string) {
	if m == nil {
		return
	}
	m.CatalogFetches.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every metric in reg to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(reg prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, reg)
}
