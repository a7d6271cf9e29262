// Package metrics records sync runs as Prometheus metrics.
//
// bgmx runs as a short-lived batch job, so instead of serving /metrics the registry is written to a
// node_exporter textfile collector file after each run.
package metrics

import (
	"fmt"

	"github.com/desertthunder/bgmx/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bgmx"

// Collector holds the counters and gauges describing sync runs.
type Collector struct {
	runs         *prometheus.CounterVec
	pagesFetched prometheus.Counter
	entriesSeen  prometheus.Counter
	entryActions *prometheus.CounterVec
	lastRun      prometheus.Gauge
	lastDuration prometheus.Gauge
	lastUpdated  prometheus.Gauge
	lastFailed   prometheus.Gauge
	gatherer     prometheus.Gatherer
}

// NewCollector creates a Collector backed by a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := newCollector(reg)
	c.gatherer = reg
	return c
}

func newCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by stop reason and mode.",
		}, []string{"stop_reason", "dry_run"}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Wish list pages fetched.",
		}),
		entriesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_seen_total",
			Help:      "Dated entries parsed from wish list pages.",
		}),
		entryActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_actions_total",
			Help:      "Entry decisions by action.",
		}, []string{"action"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastUpdated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_updated",
			Help:      "Subjects moved to watching by the last run.",
		}),
		lastFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed",
			Help:      "Failed updates in the last run.",
		}),
	}

	reg.MustRegister(
		c.runs,
		c.pagesFetched,
		c.entriesSeen,
		c.entryActions,
		c.lastRun,
		c.lastDuration,
		c.lastUpdated,
		c.lastFailed,
	)
	return c
}

// ObserveRun records a finished run.
func (c *Collector) ObserveRun(run *models.SyncRun) {
	c.runs.WithLabelValues(run.StopReason, fmt.Sprint(run.DryRun)).Inc()
	c.pagesFetched.Add(float64(run.PagesFetched))
	c.entriesSeen.Add(float64(run.EntriesSeen))
	for _, ev := range run.Events {
		c.entryActions.WithLabelValues(string(ev.Action)).Inc()
	}

	c.lastRun.Set(float64(run.FinishedAt.Unix()))
	c.lastDuration.Set(run.Duration().Seconds())
	c.lastUpdated.Set(float64(run.Updated))
	c.lastFailed.Set(float64(run.Failed))
}

// WriteTextfile writes every metric to path in the text exposition format.
//
// The file is written to a temporary name and renamed, so a concurrent scrape never reads a partial file.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
