// Package source loads raw employment extracts from local files.
//
// The extracts follow the raw fetch contract
// {code_4, occupation, age, year, value, source_table} with every value kept
// as a string. Two on-disk layouts are supported: a flat CSV export and a
// saved PxWeb JSON response.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Options controls loading.
type Options struct {
	// ExcludedAges are age-group labels removed while loading.
	ExcludedAges []string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Load reads every configured source. Priority is the position in srcs, so a
// later source wins on overlap.
//
// A source that cannot be read is logged and contributes an empty table;
// deciding whether the run can continue is left to the reconciler.
func Load(ctx context.Context, srcs []core.SourceConfig, opts Options) ([]core.SourceTable, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	excludedAges := make(map[string]struct{}, len(opts.ExcludedAges))
	for _, a := range opts.ExcludedAges {
		excludedAges[strings.TrimSpace(a)] = struct{}{}
	}

	tables := make([]core.SourceTable, 0, len(srcs))
	for priority, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Debug("loading source", "source", src.Name, "path", src.Path, "format", src.Format)

		records, err := LoadFile(src)
		if err != nil {
			logger.Error("failed to load source", "source", src.Name, "path", src.Path, "error", err)
			records = nil
		}

		kept := records[:0]
		for _, r := range records {
			if _, skip := excludedAges[strings.TrimSpace(r.Age)]; skip {
				continue
			}
			r.SourceTable = src.Name
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			logger.Warn("no data retrieved for source", "source", src.Name)
		}

		tables = append(tables, core.SourceTable{Name: src.Name, Priority: priority, Records: kept})
	}

	return tables, nil
}

// LoadFile reads one source file in its configured format.
func LoadFile(src core.SourceConfig) ([]core.RawRecord, error) {
	f, err := os.Open(src.Path) //nolint:gosec // G304: path comes from project config
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", src.Name, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(src.Format) {
	case "", core.SourceFormatCSV:
		return ReadCSV(f)
	case core.SourceFormatPxWeb:
		return ReadPxWeb(f)
	default:
		return nil, fmt.Errorf("unknown source format %q for source %s", src.Format, src.Name)
	}
}
