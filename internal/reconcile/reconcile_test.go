package reconcile

import (
	"testing"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/testutil"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(code, age, year, value string) core.RawRecord {
	return core.RawRecord{Code4: code, Occupation: "Occupation " + code, Age: age, Year: year, Value: value}
}

func table(name string, priority int, records ...core.RawRecord) core.SourceTable {
	for i := range records {
		records[i].SourceTable = name
	}
	return core.SourceTable{Name: name, Priority: priority, Records: records}
}

func newReconciler(t *testing.T, excluded ...string) *Reconciler {
	t.Helper()
	return New(Config{ExcludedCodes: excluded, Logger: testutil.NewTestLogger(t)})
}

func TestReconcile_PriorityWins(t *testing.T) {
	low := table("14_to_18", 0, raw("1211", "30-34", "2020", "100"))
	high := table("19_to_21", 1, raw("1211", "30-34", "2020", "120"))

	tests := []struct {
		name   string
		tables []core.SourceTable
	}{
		{"low first", []core.SourceTable{low, high}},
		{"high first", []core.SourceTable{high, low}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newReconciler(t).Reconcile(tt.tables)
			require.NoError(t, err)
			require.Len(t, res.Records, 1)
			assert.Equal(t, 120.0, res.Records[0].Employment)
			assert.Equal(t, "120", res.Records[0].Value)
			assert.Equal(t, 1, res.Stats.Superseded)
		})
	}
}

func TestReconcile_Filtering(t *testing.T) {
	tests := []struct {
		name     string
		tables   []core.SourceTable
		excluded []string
		want     map[core.RecordKey]float64
		verify   func(t *testing.T, stats Stats)
	}{
		{
			name: "excluded codes are removed",
			tables: []core.SourceTable{
				table("a", 0,
					raw("0002", "30-34", "2020", "50"),
					raw("0000", "30-34", "2020", "5"),
					raw("1211", "30-34", "2020", "100"),
				),
			},
			excluded: []string{"0002", "0000"},
			want: map[core.RecordKey]float64{
				{Code4: "1211", Age: "30-34", Year: "2020"}: 100,
			},
			verify: func(t *testing.T, stats Stats) {
				assert.Equal(t, 2, stats.Excluded)
			},
		},
		{
			name: "excluded codes match after zero padding",
			tables: []core.SourceTable{
				table("a", 0, raw("2", "30-34", "2020", "50"), raw("1211", "30-34", "2020", "1")),
			},
			excluded: []string{"0002"},
			want: map[core.RecordKey]float64{
				{Code4: "1211", Age: "30-34", Year: "2020"}: 1,
			},
		},
		{
			name: "non-numeric high priority falls back to lower priority value",
			tables: []core.SourceTable{
				table("a", 0, raw("1211", "30-34", "2020", "100")),
				table("b", 1, raw("1211", "30-34", "2020", "..")),
			},
			want: map[core.RecordKey]float64{
				{Code4: "1211", Age: "30-34", Year: "2020"}: 100,
			},
			verify: func(t *testing.T, stats Stats) {
				assert.Equal(t, 1, stats.NonNumeric)
				assert.Equal(t, 0, stats.Superseded)
			},
		},
		{
			name: "key with only non-numeric values disappears",
			tables: []core.SourceTable{
				table("a", 0, raw("1211", "30-34", "2020", "NaN"), raw("1212", "30-34", "2020", "7")),
				table("b", 1, raw("1211", "30-34", "2020", "")),
			},
			want: map[core.RecordKey]float64{
				{Code4: "1212", Age: "30-34", Year: "2020"}: 7,
			},
			verify: func(t *testing.T, stats Stats) {
				assert.Equal(t, 2, stats.NonNumeric)
			},
		},
		{
			name: "distinct ages and years are separate keys",
			tables: []core.SourceTable{
				table("a", 0,
					raw("1211", "30-34", "2020", "1"),
					raw("1211", "35-39", "2020", "2"),
					raw("1211", "30-34", "2021", "3"),
				),
			},
			want: map[core.RecordKey]float64{
				{Code4: "1211", Age: "30-34", Year: "2020"}: 1,
				{Code4: "1211", Age: "35-39", Year: "2020"}: 2,
				{Code4: "1211", Age: "30-34", Year: "2021"}: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newReconciler(t, tt.excluded...).Reconcile(tt.tables)
			require.NoError(t, err)

			got := make(map[core.RecordKey]float64, len(res.Records))
			for _, rec := range res.Records {
				_, dup := got[rec.Key()]
				require.False(t, dup, "duplicate key %v", rec.Key())
				got[rec.Key()] = rec.Employment
			}
			assert.Equal(t, tt.want, got)

			if tt.verify != nil {
				tt.verify(t, res.Stats)
			}
		})
	}
}

func TestReconcile_Empty(t *testing.T) {
	tests := []struct {
		name   string
		tables []core.SourceTable
	}{
		{"no tables", nil},
		{"empty tables", []core.SourceTable{table("a", 0), table("b", 1)}},
		{"everything excluded", []core.SourceTable{table("a", 0, raw("0002", "30-34", "2020", "1"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newReconciler(t, "0002").Reconcile(tt.tables)
			assert.ErrorIs(t, err, core.ErrNoRawData)
		})
	}
}

func TestReconcile_DuplicatePriority(t *testing.T) {
	_, err := newReconciler(t).Reconcile([]core.SourceTable{
		table("a", 0, raw("1211", "30-34", "2020", "1")),
		table("b", 0, raw("1211", "30-34", "2020", "2")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share priority")
}

func TestReconcile_Idempotent(t *testing.T) {
	r := newReconciler(t, "0002")
	first, err := r.Reconcile([]core.SourceTable{
		table("a", 0,
			raw("1211", "30-34", "2020", "100"),
			raw("0002", "30-34", "2020", "9"),
			raw(" 311", " 16-24 ", "2019", " 42 "),
		),
		table("b", 1,
			raw("1211", "30-34", "2020", "120"),
			raw("2141", "60-64", "2021", "x"),
		),
	})
	require.NoError(t, err)

	second, err := r.Reconcile([]core.SourceTable{first.AsSource("reconciled")})
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Zero(t, second.Stats.Superseded)
}

func TestReconcile_SortedOutput(t *testing.T) {
	res, err := newReconciler(t).Reconcile([]core.SourceTable{
		table("a", 0,
			raw("9111", "16-24", "2020", "1"),
			raw("1211", "35-39", "2020", "1"),
			raw("1211", "30-34", "2021", "1"),
			raw("1211", "30-34", "2020", "1"),
		),
	})
	require.NoError(t, err)

	var keys []core.RecordKey
	for _, rec := range res.Records {
		keys = append(keys, rec.Key())
	}
	assert.Equal(t, []core.RecordKey{
		{Code4: "1211", Age: "30-34", Year: "2020"},
		{Code4: "1211", Age: "30-34", Year: "2021"},
		{Code4: "1211", Age: "35-39", Year: "2020"},
		{Code4: "9111", Age: "16-24", Year: "2020"},
	}, keys)
}
