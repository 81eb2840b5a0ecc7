package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the aggregator's counters to Prometheus without
// maintaining a second set of counters. Collect reads the live atomics, so
// scrapes never block simulation goroutines.
type Collector struct {
	agg *Aggregator

	created    *prometheus.Desc
	completed  *prometheus.Desc
	rejected   *prometheus.Desc
	evicted    *prometheus.Desc
	active     *prometheus.Desc
	maxLatency *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Prometheus collector backed by agg.
func NewCollector(agg *Aggregator) *Collector {
	return &Collector{
		agg: agg,
		created: prometheus.NewDesc(
			"ordersim_items_created_total",
			"Total work items generated.",
			nil, nil,
		),
		completed: prometheus.NewDesc(
			"ordersim_items_completed_total",
			"Total work items completed (ephemeral or retired).",
			nil, nil,
		),
		rejected: prometheus.NewDesc(
			"ordersim_items_rejected_total",
			"Total admissions rejected by the backpressure gate.",
			nil, nil,
		),
		evicted: prometheus.NewDesc(
			"ordersim_cache_evictions_total",
			"Total cache entries evicted.",
			nil, nil,
		),
		active: prometheus.NewDesc(
			"ordersim_active_items",
			"Retained work items currently live.",
			nil, nil,
		),
		maxLatency: prometheus.NewDesc(
			"ordersim_max_latency_seconds",
			"Maximum completion latency observed in the current snapshot interval.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.created
	ch <- c.completed
	ch <- c.rejected
	ch <- c.evicted
	ch <- c.active
	ch <- c.maxLatency
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(c.agg.Created()))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(c.agg.Completed()))
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(c.agg.Rejected()))
	ch <- prometheus.MustNewConstMetric(c.evicted, prometheus.CounterValue, float64(c.agg.Evicted()))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.agg.Active()))
	ch <- prometheus.MustNewConstMetric(c.maxLatency, prometheus.GaugeValue, c.agg.MaxLatencyObserved().Seconds())
}
