// Package metrics records data-quality and run metrics for the rollup
// pipeline. Metrics live in their own registry and are written to a
// node_exporter textfile rather than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Pipeline stages used as the "stage" label.
const (
	StageReconcile = "reconcile"
	StageHierarchy = "hierarchy"
)

// Metrics provides observability for one pipeline process.
type Metrics struct {
	registry *prometheus.Registry

	// Records removed by a stage, by reason
	RecordsDropped *prometheus.CounterVec

	// Lower-priority records replaced during reconciliation
	RecordsSuperseded prometheus.Counter

	// Employment values coerced to zero during derivation
	RecordsZeroed prometheus.Counter

	// Rows in the combined table by level
	RollupRows *prometheus.GaugeVec

	// Codes without a translated label by level
	UntranslatedCodes *prometheus.GaugeVec

	// Cache lookups by result: "hit", "miss", "skip"
	CacheLookups *prometheus.CounterVec

	// Wall time of a run by final status
	RunDuration *prometheus.HistogramVec
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssykroll_records_dropped_total",
			Help: "Records removed during processing by stage and reason",
		}, []string{"stage", "reason"}),

		RecordsSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ssykroll_records_superseded_total",
			Help: "Records replaced by a higher-priority source table",
		}),

		RecordsZeroed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ssykroll_records_zeroed_total",
			Help: "Employment values coerced to zero during hierarchy derivation",
		}),

		RollupRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ssykroll_rollup_rows",
			Help: "Rows in the combined rollup table by level",
		}, []string{"level"}),

		UntranslatedCodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ssykroll_untranslated_codes",
			Help: "Distinct codes without a translated label by level",
		}, []string{"level"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssykroll_cache_lookups_total",
			Help: "Rollup cache lookups by result",
		}, []string{"result"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ssykroll_run_duration_seconds",
			Help:    "Duration of a full rollup run by status",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"status"}),
	}
}

// Registry returns the registry holding every pipeline metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddDropped records n records removed by stage for reason.
func (m *Metrics) AddDropped(stage, reason string, n int) {
	if m != nil && n > 0 {
		m.RecordsDropped.WithLabelValues(stage, reason).Add(float64(n))
	}
}

// AddSuperseded records n replaced records.
func (m *Metrics) AddSuperseded(n int) {
	if m != nil && n > 0 {
		m.RecordsSuperseded.Add(float64(n))
	}
}

// AddZeroed records n coerced employment values.
func (m *Metrics) AddZeroed(n int) {
	if m != nil && n > 0 {
		m.RecordsZeroed.Add(float64(n))
	}
}

// SetRollupRows sets the per-level row gauge from a combined table.
func (m *Metrics) SetRollupRows(rows []core.Row) {
	if m == nil {
		return
	}
	counts := make(map[core.Level]int, len(core.Levels))
	for _, r := range rows {
		counts[r.Level]++
	}
	for _, l := range core.Levels {
		m.RollupRows.WithLabelValues(l.String()).Set(float64(counts[l]))
	}
}

// SetUntranslated sets the untranslated-code gauge for a level.
func (m *Metrics) SetUntranslated(l core.Level, n int) {
	if m != nil {
		m.UntranslatedCodes.WithLabelValues(l.String()).Set(float64(n))
	}
}

// IncrementCache records a cache lookup result.
func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveRun records the duration of a finished run.
func (m *Metrics) ObserveRun(status core.RunStatus, d time.Duration) {
	if m != nil {
		m.RunDuration.WithLabelValues(string(status)).Observe(d.Seconds())
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
