package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/output"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/engine"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Level  string
	Code   string
	Year   int
	Age    string
	Format string
	Limit  int
}

// rowFilter selects rollup rows.
type rowFilter struct {
	level core.Level
	code  string
	year  int
	age   string
}

func (f rowFilter) match(r core.Row) bool {
	if f.level != 0 && r.Level != f.level {
		return false
	}
	if f.code != "" && r.Code != f.code {
		return false
	}
	if f.year != 0 && r.Year != f.year {
		return false
	}
	if f.age != "" && r.AgeGroup != f.age {
		return false
	}
	return true
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show rows of the rollup table",
		Long: `Print rows of the combined rollup table, filtered by level, code, year
or age group. The cached rollup is used when it is up to date; otherwise
the rollup is computed and cached first.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table

Use --format (or the global --output) to override: text, markdown, json, csv`,
		Example: `  # All level 1 rows for 2020
  ssykroll show --level 1 --year 2020

  # One occupation across years as CSV
  ssykroll show --code 2512 --age 30-34 --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Level, "level", "l", "", "Hierarchy level (1-4)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "Occupation code; its length implies the level")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "Year")
	cmd.Flags().StringVar(&opts.Age, "age", "", "Age group label, e.g. 30-34")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (text|markdown|json|csv)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of rows (0 for all)")

	_ = cmd.RegisterFlagCompletionFunc("level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"1", "2", "3", "4"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newRowFilter(opts *ShowOptions) (rowFilter, error) {
	f := rowFilter{
		code: strings.TrimSpace(opts.Code),
		year: opts.Year,
		age:  strings.TrimSpace(opts.Age),
	}
	if opts.Limit < 0 {
		return f, fmt.Errorf("invalid limit %d: must not be negative", opts.Limit)
	}
	if opts.Level != "" {
		l, err := core.ParseLevel(opts.Level)
		if err != nil {
			return f, err
		}
		f.level = l
	}
	if f.code != "" {
		if !core.IsDigits(f.code) || len(f.code) > 4 {
			return f, fmt.Errorf("invalid code %q: must be 1 to 4 digits", opts.Code)
		}
		implied := core.Level(len(f.code))
		if f.level != 0 && f.level != implied {
			return f, fmt.Errorf("code %q is a level %d code, not level %d", f.code, implied, f.level)
		}
		f.level = implied
	}
	return f, nil
}

func runShow(cmd *cobra.Command, opts *ShowOptions) error {
	filter, err := newRowFilter(opts)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	renderer := cmdCtx.Renderer
	if opts.Format != "" {
		mode := output.Mode(opts.Format)
		if mode == output.ModeAuto {
			return fmt.Errorf("invalid format %q: must be text, markdown, json or csv", opts.Format)
		}
		renderer = renderer.WithMode(mode)
	}

	res, err := cmdCtx.Engine.Run(cmd.Context(), engine.RunOptions{})
	if err != nil {
		return fmt.Errorf("failed to load rollup: %w", err)
	}

	rows := make([]core.Row, 0, len(res.Rows))
	for _, row := range res.Rows {
		if !filter.match(row) {
			continue
		}
		rows = append(rows, row)
		if opts.Limit > 0 && len(rows) == opts.Limit {
			break
		}
	}

	if len(rows) == 0 {
		cmdCtx.Logger.Info("no rows matched", "total", len(res.Rows))
	}
	return renderer.Rows(rows)
}
