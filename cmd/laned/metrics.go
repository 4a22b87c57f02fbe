// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/btcsuite/laned/entrylog"
	"github.com/btcsuite/laned/mempool"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "laned"

// poolCollector exports the read-only mempool snapshot and the entry log
// counters.  Every scrape reads a fresh snapshot, so the collector never
// takes the pool lock.
type poolCollector struct {
	pool      *mempool.TxPool
	persister *entrylog.Persister

	laneSize     *prometheus.Desc
	laneCapacity *prometheus.Desc
	laneOrphans  *prometheus.Desc
	laneSenders  *prometheus.Desc
	outcomes     *prometheus.Desc
	rejections   *prometheus.Desc
	poisoned     *prometheus.Desc
	logWrites    *prometheus.Desc
}

// Ensure poolCollector implements the prometheus.Collector interface.
var _ prometheus.Collector = (*poolCollector)(nil)

// newPoolCollector returns a collector for pool.  persister may be nil when
// the entry log is disabled.
func newPoolCollector(pool *mempool.TxPool, persister *entrylog.Persister) *poolCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "mempool", name),
			help, labels, nil)
	}
	return &poolCollector{
		pool:      pool,
		persister: persister,
		laneSize: desc("lane_entries",
			"Live entries per lane.", "lane"),
		laneCapacity: desc("lane_capacity",
			"Maximum live entries per lane.", "lane"),
		laneOrphans: desc("lane_orphans",
			"Entries whose sender no longer resolves, per lane.", "lane"),
		laneSenders: desc("lane_senders",
			"Distinct senders with live entries, per lane.", "lane"),
		outcomes: desc("entries_total",
			"Entries by outcome since startup.", "outcome"),
		rejections: desc("rejections_total",
			"Rejected submissions by reason since startup.", "reason"),
		poisoned: desc("poisoned",
			"1 when the pool refuses mutations until rebuilt."),
		logWrites: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "entrylog",
				"operations_total"),
			"Entry log operations by result since startup.",
			[]string{"op"}, nil),
	}
}

// Describe sends the descriptors of every metric the collector exports.
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.laneSize
	ch <- c.laneCapacity
	ch <- c.laneOrphans
	ch <- c.laneSenders
	ch <- c.outcomes
	ch <- c.rejections
	ch <- c.poisoned
	ch <- c.logWrites
}

// Collect reads a pool snapshot and sends its figures.
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.pool.Snapshot()

	for lane, ls := range snap.Lanes {
		name := lane.String()
		ch <- prometheus.MustNewConstMetric(c.laneSize,
			prometheus.GaugeValue, float64(ls.Size), name)
		ch <- prometheus.MustNewConstMetric(c.laneCapacity,
			prometheus.GaugeValue, float64(ls.Capacity), name)
		ch <- prometheus.MustNewConstMetric(c.laneOrphans,
			prometheus.GaugeValue, float64(ls.Orphans), name)
		ch <- prometheus.MustNewConstMetric(c.laneSenders,
			prometheus.GaugeValue, float64(len(ls.PendingBySender)),
			name)
	}

	outcomes := []struct {
		name  string
		value uint64
	}{
		{"admitted", snap.Admitted},
		{"evicted", snap.Evicted},
		{"expired", snap.Expired},
		{"orphan_swept", snap.OrphansSwept},
		{"included", snap.Included},
		{"dropped", snap.Dropped},
		{"orphan_sweeps", snap.OrphanSweeps},
	}
	for _, o := range outcomes {
		ch <- prometheus.MustNewConstMetric(c.outcomes,
			prometheus.CounterValue, float64(o.value), o.name)
	}

	for code, n := range snap.Rejections {
		ch <- prometheus.MustNewConstMetric(c.rejections,
			prometheus.CounterValue, float64(n), code.String())
	}

	var poisoned float64
	if snap.Poisoned {
		poisoned = 1
	}
	ch <- prometheus.MustNewConstMetric(c.poisoned, prometheus.GaugeValue,
		poisoned)

	if c.persister != nil {
		stats := c.persister.Stats()
		ch <- prometheus.MustNewConstMetric(c.logWrites,
			prometheus.CounterValue, float64(stats.Written), "write")
		ch <- prometheus.MustNewConstMetric(c.logWrites,
			prometheus.CounterValue, float64(stats.Deleted), "delete")
		ch <- prometheus.MustNewConstMetric(c.logWrites,
			prometheus.CounterValue, float64(stats.Failed), "failure")
	}
}
