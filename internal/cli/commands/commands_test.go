package commands

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/output"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/testutil"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/config"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/engine"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/reconcile"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/state"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewRunCommand(), use: "run", flags: []string{"year-min", "year-max", "refresh", "no-cache", "csv", "duckdb", "metrics-file"}},
		{cmd: NewShowCommand(), use: "show", flags: []string{"level", "code", "year", "age", "format", "limit"}},
		{cmd: NewSourcesCommand(), use: "sources"},
		{cmd: NewCacheCommand(), use: "cache"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	names := []string{}
	for _, sub := range NewCacheCommand().Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "clear"}, names)
}

func TestNewCommandContext_RequiresConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := NewCommandContextWithoutEngine(cmd)
	require.ErrorIs(t, err, errNoConfig)

	_, _, err = NewCommandContext(cmd)
	require.ErrorIs(t, err, errNoConfig)
}

func TestNewCommandContext(t *testing.T) {
	cmd := &cobra.Command{}
	cfg := &config.Config{Taxonomy: core.DefaultTaxonomy, CachePath: ":memory:", OutputFormat: "json"}
	cmd.SetContext(config.WithConfig(context.Background(), cfg))

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	require.NoError(t, err)
	defer cleanup()

	assert.Same(t, cfg, cmdCtx.Cfg)
	assert.NotNil(t, cmdCtx.Logger)
	assert.NotNil(t, cmdCtx.Metrics)
	assert.NotNil(t, cmdCtx.Engine.Store())
	assert.Equal(t, output.ModeJSON, cmdCtx.Renderer.EffectiveMode())
}

func TestNewRowFilter(t *testing.T) {
	tests := []struct {
		name      string
		opts      ShowOptions
		want      rowFilter
		errSubstr string
	}{
		{name: "empty", opts: ShowOptions{}, want: rowFilter{}},
		{name: "level", opts: ShowOptions{Level: "3"}, want: rowFilter{level: core.Level3}},
		{name: "code implies level", opts: ShowOptions{Code: " 121 "}, want: rowFilter{level: core.Level3, code: "121"}},
		{name: "matching level and code", opts: ShowOptions{Level: "level2", Code: "12"}, want: rowFilter{level: core.Level2, code: "12"}},
		{name: "year and age", opts: ShowOptions{Year: 2020, Age: "30-34"}, want: rowFilter{year: 2020, age: "30-34"}},
		{name: "bad level", opts: ShowOptions{Level: "0"}, errSubstr: "invalid level"},
		{name: "long code", opts: ShowOptions{Code: "12345"}, errSubstr: "invalid code"},
		{name: "conflict", opts: ShowOptions{Level: "4", Code: "12"}, errSubstr: "not level 4"},
		{name: "negative limit", opts: ShowOptions{Limit: -2}, errSubstr: "invalid limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newRowFilter(&tt.opts)
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowFilter_Match(t *testing.T) {
	row := core.Row{Level: core.Level3, Code: "121", Year: 2020, AgeGroup: "30-34"}

	tests := []struct {
		name   string
		filter rowFilter
		want   bool
	}{
		{name: "no filter", filter: rowFilter{}, want: true},
		{name: "all fields", filter: rowFilter{level: core.Level3, code: "121", year: 2020, age: "30-34"}, want: true},
		{name: "other level", filter: rowFilter{level: core.Level2}, want: false},
		{name: "other code", filter: rowFilter{code: "122"}, want: false},
		{name: "other year", filter: rowFilter{year: 2021}, want: false},
		{name: "other age", filter: rowFilter{age: "35-39"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.match(row))
		})
	}
}

func TestResolveKey(t *testing.T) {
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()
	require.NoError(t, store.InitSchema())

	rows := []core.Row{{Taxonomy: core.DefaultTaxonomy, Level: core.Level4, Code: "1211", Year: 2020, AgeGroup: "30-34"}}
	for _, key := range []string{"abc111", "abc222", "def333"} {
		require.NoError(t, store.PutRollup(&core.CacheEntry{Key: key, Taxonomy: core.DefaultTaxonomy}, rows))
	}

	tests := []struct {
		prefix    string
		want      string
		errSubstr string
	}{
		{prefix: "def", want: "def333"},
		{prefix: "abc111", want: "abc111"},
		{prefix: "abc", errSubstr: "ambiguous"},
		{prefix: "zzz", errSubstr: "no cached rollup"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := resolveKey(store, tt.prefix)
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatYearRange(t *testing.T) {
	y1, y2 := 2014, 2023
	assert.Equal(t, "2014-2023", formatYearRange(&y1, &y2))
	assert.Equal(t, "*-2023", formatYearRange(nil, &y2))
	assert.Equal(t, "2014-*", formatYearRange(&y1, nil))
	assert.Equal(t, "*-*", formatYearRange(nil, nil))
}

func TestRunSummary(t *testing.T) {
	res := &engine.Result{
		Run:      &core.Run{ID: "run-1"},
		CacheKey: "0123456789abcdef",
		Rows: []core.Row{
			{Level: core.Level1}, {Level: core.Level4}, {Level: core.Level4},
		},
		Reconcile: reconcile.Stats{Superseded: 2, Excluded: 1},
	}

	s := buildRunSummary(res, []string{"out.csv"}, 1500*time.Millisecond)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, map[string]int{"1": 1, "2": 0, "3": 0, "4": 2}, s.RowsPerLevel)
	assert.Equal(t, int64(1500), s.DurationMS)

	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	require.NoError(t, renderRunSummary(tr.Renderer, s))
	out := tr.Output()
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Rollup")
	assert.Contains(t, out, "- **Cache key:** 0123456789ab")
	assert.Contains(t, out, "- **Superseded:** 2")
	assert.Contains(t, out, "- **Wrote:** out.csv")
	assert.Contains(t, out, "- **Duration:** 1.5s")

	tr = testutil.NewTestRenderer(output.ModeCSV, false)
	require.NoError(t, renderRunSummary(tr.Renderer, s))
	assert.Contains(t, tr.Output(), "cache_key,cached,rows")
	assert.Contains(t, tr.Output(), "0123456789abcdef,false,3,2,1,0,0")
}

func TestShortKey(t *testing.T) {
	assert.Equal(t, "abc", shortKey("abc"))
	assert.Equal(t, "0123456789ab", shortKey("0123456789abcdef"))
}
