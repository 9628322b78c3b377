// Package hierarchy derives the SSYK code hierarchy from reconciled records.
// Each 4-digit code is expanded into its 3-, 2- and 1-digit parents by
// left truncation; codes are never reassigned after derivation.
package hierarchy

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Config holds deriver configuration.
type Config struct {
	// YearMin and YearMax bound the inclusive year range; nil means unbounded.
	YearMin *int
	YearMax *int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Stats counts rows dropped or coerced during derivation.
type Stats struct {
	In          int
	InvalidCode int
	YearDropped int
	OutOfRange  int
	Zeroed      int
	Out         int
}

// Result is the hierarchical table.
type Result struct {
	Records []core.HierRecord
	Stats   Stats
}

// Deriver expands reconciled records into hierarchical records.
type Deriver struct {
	yearMin *int
	yearMax *int
	logger  *slog.Logger
}

// New creates a deriver.
func New(cfg Config) *Deriver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Deriver{yearMin: cfg.YearMin, yearMax: cfg.YearMax, logger: logger}
}

// Derive builds the hierarchical table. It fails with core.ErrNoRecords when
// the input is empty.
//
// Employment values that cannot be parsed as a non-negative number are set
// to zero rather than dropped, and every such coercion is logged.
func (d *Deriver) Derive(records []core.Record) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("hierarchy derivation: %w", core.ErrNoRecords)
	}
	if d.yearMin != nil && d.yearMax != nil && *d.yearMin > *d.yearMax {
		return nil, fmt.Errorf("invalid year range: %d > %d", *d.yearMin, *d.yearMax)
	}

	stats := Stats{In: len(records)}
	out := make([]core.HierRecord, 0, len(records))

	for _, rec := range records {
		code4 := core.PadCode(rec.Code4, 4)
		if len(code4) != 4 || !core.IsDigits(code4) {
			stats.InvalidCode++
			d.logger.Warn("dropping record with malformed occupation code", "code4", rec.Code4, "year", rec.Year)
			continue
		}

		year, err := strconv.Atoi(strings.TrimSpace(rec.Year))
		if err != nil {
			stats.YearDropped++
			d.logger.Warn("dropping record with unparseable year", "code4", code4, "year", rec.Year)
			continue
		}
		if !d.inRange(year) {
			stats.OutOfRange++
			continue
		}

		employment, ok := parseEmployment(rec.Value)
		if !ok {
			stats.Zeroed++
			d.logger.Warn("coercing employment value to zero",
				"code4", code4, "age", rec.Age, "year", year, "value", rec.Value)
		}

		h := core.HierRecord{
			Year:       year,
			Age:        strings.TrimSpace(rec.Age),
			Employment: employment,
		}
		for _, l := range core.Levels {
			h.Codes[l] = code4[:l]
			h.Labels[l] = h.Codes[l]
		}
		h.Labels[core.Level4] = CleanLabel(rec.Occupation)

		out = append(out, h)
	}

	stats.Out = len(out)
	d.logger.Debug("derived hierarchy",
		"in", stats.In,
		"out", stats.Out,
		"invalid_code", stats.InvalidCode,
		"year_dropped", stats.YearDropped,
		"out_of_range", stats.OutOfRange,
		"zeroed", stats.Zeroed,
	)

	return &Result{Records: out, Stats: stats}, nil
}

func (d *Deriver) inRange(year int) bool {
	if d.yearMin != nil && year < *d.yearMin {
		return false
	}
	if d.yearMax != nil && year > *d.yearMax {
		return false
	}
	return true
}

// CleanLabel trims an occupation label and normalises it to NFC so that
// precomposed and decomposed Swedish characters compare equal.
func CleanLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// parseEmployment parses a non-negative finite count. It returns (0, false)
// when the value has to be coerced.
func parseEmployment(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
