/*
Package metrics records what one addonsync run did.

A run is a short-lived process, so nothing is served over HTTP. Instead each
run gets its own registry, and when a textfile path is configured the registry
is written there for the node_exporter textfile collector:

  - addonsync_items_total: items classified during update (counter)
    Labels: classification (outdated, current, unknown)
  - addonsync_item_failures_total: per-item failures (counter)
    Labels: phase (update, download, extract)
  - addonsync_process_runs_total: external process invocations (counter)
    Labels: tool, status (ok, failed)
  - addonsync_phase_duration_seconds: wall time per phase (gauge)
    Labels: phase
  - addonsync_last_run_timestamp_seconds: end of the run (gauge)
*/
package metrics

import (
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tacogips/addonsync/internal/model"
)

// Recorder holds the metrics of one run.
type Recorder struct {
	registry *prometheus.Registry

	items         *prometheus.CounterVec
	itemFailures  *prometheus.CounterVec
	processRuns   *prometheus.CounterVec
	phaseDuration *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

// NewRecorder creates a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addonsync_items_total",
				Help: "Workshop items classified during update",
			},
			[]string{"classification"},
		),
		itemFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addonsync_item_failures_total",
				Help: "Items that failed in a phase",
			},
			[]string{"phase"},
		),
		processRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addonsync_process_runs_total",
				Help: "External process invocations by tool and outcome",
			},
			[]string{"tool", "status"},
		),
		phaseDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "addonsync_phase_duration_seconds",
				Help: "Wall time spent in each phase of the last run",
			},
			[]string{"phase"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "addonsync_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordItems adds n items of one classification.
func (r *Recorder) RecordItems(c model.Classification, n int) {
	r.items.WithLabelValues(c.String()).Add(float64(n))
}

// RecordFailures adds n per-item failures in phase.
func (r *Recorder) RecordFailures(phase string, n int) {
	r.itemFailures.WithLabelValues(phase).Add(float64(n))
}

// RecordProcess counts one external process run. tool is reduced to its
// base name so configured absolute paths do not leak into labels.
func (r *Recorder) RecordProcess(tool string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	r.processRuns.WithLabelValues(filepath.Base(tool), status).Inc()
}

// ObservePhase records how long a phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// MarkFinished stamps the end of the run.
func (r *Recorder) MarkFinished(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry to path atomically. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
