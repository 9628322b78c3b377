package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured extracts in priority order",
		Long: `List the configured extracts. When two extracts report the same
(code, age, year), the one with the higher priority (listed later) wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(cmdCtx.Cfg.Sources))
			for i, src := range cmdCtx.Cfg.Sources {
				format := src.Format
				if format == "" {
					format = core.SourceFormatCSV
				}
				_, statErr := os.Stat(src.Path)
				rows = append(rows, []string{
					strconv.Itoa(i),
					src.Name,
					format,
					src.Path,
					strconv.FormatBool(statErr == nil),
				})
			}
			return cmdCtx.Renderer.Table([]string{"priority", "name", "format", "path", "exists"}, rows)
		},
	}
}
