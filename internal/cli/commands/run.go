package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/output"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/engine"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/export"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Refresh     bool
	NoCache     bool
	CSVPath     string
	DuckDBPath  string
	MetricsFile string
}

// runSummary is the JSON shape of a finished run.
type runSummary struct {
	RunID        string         `json:"run_id,omitempty"`
	CacheKey     string         `json:"cache_key"`
	Cached       bool           `json:"cached"`
	Rows         int            `json:"rows"`
	RowsPerLevel map[string]int `json:"rows_per_level"`
	Superseded   int            `json:"superseded"`
	Excluded     int            `json:"excluded"`
	NonNumeric   int            `json:"non_numeric"`
	Zeroed       int            `json:"zeroed"`
	Outputs      []string       `json:"outputs,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the occupation employment rollup",
		Long: `Load the configured extracts, reconcile overlapping years, derive the
SSYK hierarchy and build the combined rollup table for levels 1 to 4.

A cached rollup is reused when no input has changed. Exports are only
written after the whole rollup succeeds.`,
		Example: `  # Build (or load) the rollup
  ssykroll run

  # Restrict years and export the table
  ssykroll run --year-min 2016 --year-max 2022 --csv out/rollup.csv

  # Recompute even if a cached copy exists, and load into DuckDB
  ssykroll run --refresh --duckdb out/rollup.duckdb`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().Int("year-min", 0, "Earliest year to keep (0 for no lower bound)")
	cmd.Flags().Int("year-max", 0, "Latest year to keep (0 for no upper bound)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Recompute and replace the cached rollup")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Neither read nor write the cache")
	cmd.Flags().StringVar(&opts.CSVPath, "csv", "", "Write the rollup table to a CSV file")
	cmd.Flags().StringVar(&opts.DuckDBPath, "duckdb", "", "Write the rollup table to a DuckDB database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write pipeline metrics in Prometheus text format")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	res, err := cmdCtx.Engine.Run(cmd.Context(), engine.RunOptions{
		Refresh: opts.Refresh,
		NoCache: opts.NoCache,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	var outputs []string
	if opts.CSVPath != "" {
		if err := export.WriteCSVFile(opts.CSVPath, res.Rows); err != nil {
			return fmt.Errorf("failed to export csv: %w", err)
		}
		outputs = append(outputs, opts.CSVPath)
	}
	if opts.DuckDBPath != "" {
		if err := export.WriteDuckDB(cmd.Context(), opts.DuckDBPath, res.Rows); err != nil {
			return fmt.Errorf("failed to export duckdb: %w", err)
		}
		outputs = append(outputs, opts.DuckDBPath)
	}
	if opts.MetricsFile != "" {
		if err := cmdCtx.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		outputs = append(outputs, opts.MetricsFile)
	}

	return renderRunSummary(cmdCtx.Renderer, buildRunSummary(res, outputs, time.Since(start)))
}

func buildRunSummary(res *engine.Result, outputs []string, elapsed time.Duration) runSummary {
	s := runSummary{
		CacheKey:     res.CacheKey,
		Cached:       res.Cached,
		Rows:         len(res.Rows),
		RowsPerLevel: make(map[string]int, len(core.Levels)),
		Superseded:   res.Reconcile.Superseded,
		Excluded:     res.Reconcile.Excluded,
		NonNumeric:   res.Reconcile.NonNumeric,
		Zeroed:       res.Hierarchy.Zeroed,
		Outputs:      outputs,
		DurationMS:   elapsed.Milliseconds(),
	}
	if res.Run != nil {
		s.RunID = res.Run.ID
	}
	for _, l := range core.Levels {
		s.RowsPerLevel[strconv.Itoa(int(l))] = 0
	}
	for _, r := range res.Rows {
		s.RowsPerLevel[strconv.Itoa(int(r.Level))]++
	}
	return s
}

func renderRunSummary(r *output.Renderer, s runSummary) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(s)
	case output.ModeCSV:
		return r.Table(
			[]string{"cache_key", "cached", "rows", "superseded", "excluded", "non_numeric", "zeroed"},
			[][]string{{
				s.CacheKey, strconv.FormatBool(s.Cached), strconv.Itoa(s.Rows),
				strconv.Itoa(s.Superseded), strconv.Itoa(s.Excluded),
				strconv.Itoa(s.NonNumeric), strconv.Itoa(s.Zeroed),
			}},
		)
	}

	r.Header(1, "Rollup")
	source := "computed"
	if s.Cached {
		source = "cache"
	}
	r.KeyValue("Source", source)
	r.KeyValue("Cache key", shortKey(s.CacheKey))
	if s.RunID != "" {
		r.KeyValue("Run", s.RunID)
	}
	r.KeyValue("Rows", fmt.Sprintf("%d (L1 %d, L2 %d, L3 %d, L4 %d)", s.Rows,
		s.RowsPerLevel["1"], s.RowsPerLevel["2"], s.RowsPerLevel["3"], s.RowsPerLevel["4"]))
	if !s.Cached {
		r.KeyValue("Superseded", strconv.Itoa(s.Superseded))
		r.KeyValue("Excluded", strconv.Itoa(s.Excluded))
		r.KeyValue("Non-numeric", strconv.Itoa(s.NonNumeric))
		r.KeyValue("Zeroed", strconv.Itoa(s.Zeroed))
	}
	for _, o := range s.Outputs {
		r.KeyValue("Wrote", o)
	}
	r.KeyValue("Duration", (time.Duration(s.DurationMS) * time.Millisecond).String())
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
