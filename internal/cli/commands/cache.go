package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

var errCacheDisabled = errors.New("cache is disabled: set cache_path or --cache")

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and invalidate cached rollups",
		Long: `Cached rollups are keyed by a digest of every input that shapes the
table: settings, source order, and the content of each source and the
translation workbook. Use these commands to see what is stored and to
drop it explicitly.`,
	}

	cmd.AddCommand(newCacheListCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached rollups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			store := cmdCtx.Engine.Store()
			if store == nil {
				return errCacheDisabled
			}
			entries, err := store.ListRollups()
			if err != nil {
				return fmt.Errorf("failed to list cached rollups: %w", err)
			}

			current, err := cmdCtx.Engine.CacheKey()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Key,
					e.Taxonomy,
					formatYearRange(e.YearMin, e.YearMax),
					strconv.FormatInt(e.RowCount, 10),
					e.CreatedAt.Local().Format(time.DateTime),
					strconv.FormatBool(e.Key == current),
				})
			}
			return cmdCtx.Renderer.Table(
				[]string{"key", "taxonomy", "years", "rows", "created_at", "current"},
				rows,
			)
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached rollups",
		Long:  `Remove every cached rollup, or only the one given with --key. Run history is kept.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			store := cmdCtx.Engine.Store()
			if store == nil {
				return errCacheDisabled
			}

			if key != "" {
				full, err := resolveKey(store, key)
				if err != nil {
					return err
				}
				if err := store.DeleteRollup(full); err != nil {
					return fmt.Errorf("failed to delete cached rollup: %w", err)
				}
				cmdCtx.Renderer.Success(fmt.Sprintf("Removed cached rollup %s", shortKey(full)))
				return nil
			}

			n, err := store.ClearRollups()
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Removed %d cached rollup(s)", n))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Cache key (or unique prefix) to remove")
	return cmd
}

// resolveKey expands a key prefix to the single cached key it names.
func resolveKey(store core.Store, prefix string) (string, error) {
	entries, err := store.ListRollups()
	if err != nil {
		return "", fmt.Errorf("failed to list cached rollups: %w", err)
	}
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Key, prefix) {
			matches = append(matches, e.Key)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no cached rollup with key %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("key prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func formatYearRange(minYear, maxYear *int) string {
	lo, hi := "*", "*"
	if minYear != nil {
		lo = strconv.Itoa(*minYear)
	}
	if maxYear != nil {
		hi = strconv.Itoa(*maxYear)
	}
	return lo + "-" + hi
}
