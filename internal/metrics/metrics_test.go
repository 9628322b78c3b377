package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.AddDropped(StageReconcile, "excluded_code", 3)
	m.AddDropped(StageReconcile, "excluded_code", 2)
	m.AddDropped(StageHierarchy, "invalid_code", 0)
	m.AddSuperseded(4)
	m.AddZeroed(1)
	m.IncrementCache("hit")
	m.IncrementCache("hit")

	assert.InDelta(t, 5, testutil.ToFloat64(m.RecordsDropped.WithLabelValues(StageReconcile, "excluded_code")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RecordsSuperseded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsZeroed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecordsDropped), "zero adds create no series")
}

func TestMetrics_RollupRows(t *testing.T) {
	m := New()
	m.SetRollupRows([]core.Row{
		{Level: core.Level1}, {Level: core.Level1}, {Level: core.Level4},
	})

	tests := []struct {
		level core.Level
		want  float64
	}{
		{core.Level1, 2},
		{core.Level2, 0},
		{core.Level3, 0},
		{core.Level4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, testutil.ToFloat64(m.RollupRows.WithLabelValues(tt.level.String())), 0)
		})
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddDropped(StageReconcile, "x", 1)
		m.AddSuperseded(1)
		m.AddZeroed(1)
		m.SetRollupRows(nil)
		m.SetUntranslated(core.Level1, 1)
		m.IncrementCache("miss")
		m.ObserveRun(core.RunStatusCompleted, time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.AddZeroed(2)
	m.SetUntranslated(core.Level3, 7)
	m.ObserveRun(core.RunStatusCompleted, 150*time.Millisecond)

	path := filepath.Join(t.TempDir(), "ssykroll.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "ssykroll_records_zeroed_total 2")
	assert.Contains(t, out, `ssykroll_untranslated_codes{level="level3"} 7`)
	assert.Contains(t, out, `ssykroll_run_duration_seconds_count{status="completed"} 1`)
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.AddZeroed(1)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RecordsZeroed), 0)
	assert.NotSame(t, a.Registry(), b.Registry())
}
