// Package metrics exports warehouse storage statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zeusync/warehouse/internal/core/access"
	"github.com/zeusync/warehouse/internal/core/storage"
)

const subsystem = "storage"

// Source is anything that can report per-storage statistics.
type Source interface {
	Stats() []storage.Stats
}

// Collector is a prometheus.Collector that reads storage statistics from its
// source on every scrape.
type Collector struct {
	source Source

	capacity     *prometheus.Desc
	occupied     *prometheus.Desc
	acquisitions *prometheus.Desc
	contended    *prometheus.Desc
	wait         *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector for source with metric names under namespace.
func NewCollector(namespace string, source Source) *Collector {
	labels := []string{"component", "component_id"}
	modeLabels := append(labels[:len(labels):len(labels)], "mode")

	return &Collector{
		source: source,
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "capacity"),
			"Number of slots in the storage.",
			labels, nil),
		occupied: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "occupied"),
			"Number of slots holding a value.",
			labels, nil),
		acquisitions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "acquisitions_total"),
			"Number of granted accesses.",
			modeLabels, nil),
		contended: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "contended_total"),
			"Number of accesses that had to wait.",
			modeLabels, nil),
		wait: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "wait_seconds_total"),
			"Time spent waiting for access.",
			modeLabels, nil),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.occupied
	ch <- c.acquisitions
	ch <- c.contended
	ch <- c.wait
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.Stats() {
		name, id := s.Name, s.ComponentID.String()

		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), name, id)
		ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(s.Occupied), name, id)

		for _, mode := range []access.Mode{access.Shared, access.Exclusive} {
			count, contended, wait := split(s.Access, mode)
			m := mode.String()
			ch <- prometheus.MustNewConstMetric(c.acquisitions, prometheus.CounterValue, float64(count), name, id, m)
			ch <- prometheus.MustNewConstMetric(c.contended, prometheus.CounterValue, float64(contended), name, id, m)
			ch <- prometheus.MustNewConstMetric(c.wait, prometheus.CounterValue, wait, name, id, m)
		}
	}
}

func split(m access.Metrics, mode access.Mode) (count, contended uint64, waitSeconds float64) {
	if mode == access.Exclusive {
		return m.Writes, m.ContendedWrites, m.WriteWait.Seconds()
	}
	return m.Reads, m.ContendedReads, m.ReadWait.Seconds()
}
