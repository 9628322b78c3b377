// Package reconcile merges overlapping raw extracts into one deduplicated table.
//
// Every source table carries an integer priority. Records are filtered and
// coerced first, then a ranked merge keeps, for each (code4, age, year) key,
// the candidate from the highest-priority source. The result never depends on
// the order in which tables or records are supplied.
package reconcile

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Config holds reconciler configuration.
type Config struct {
	// ExcludedCodes are 4-digit codes (administrative or unknown categories)
	// removed before priority resolution.
	ExcludedCodes []string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Stats counts what happened to the raw records.
type Stats struct {
	Raw        int
	Excluded   int
	NonNumeric int
	Superseded int
	Kept       int
}

// Result is the reconciled table.
type Result struct {
	Records []core.Record
	Stats   Stats
}

// Reconciler merges source tables by priority.
type Reconciler struct {
	excluded map[string]struct{}
	logger   *slog.Logger
}

// New creates a reconciler.
func New(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	excluded := make(map[string]struct{}, len(cfg.ExcludedCodes))
	for _, code := range cfg.ExcludedCodes {
		excluded[core.PadCode(code, 4)] = struct{}{}
	}

	return &Reconciler{excluded: excluded, logger: logger}
}

// candidate is a coerced record together with the priority of its source.
type candidate struct {
	record   core.Record
	priority int
	source   string
}

// Reconcile merges the given tables into one table unique per (code4, age, year).
// It returns core.ErrNoRawData when the tables hold no records at all, or when
// none survive exclusion and coercion.
func (r *Reconciler) Reconcile(tables []core.SourceTable) (*Result, error) {
	if err := checkPriorities(tables); err != nil {
		return nil, err
	}

	var stats Stats
	best := make(map[core.RecordKey]candidate)

	for _, table := range tables {
		for _, raw := range table.Records {
			stats.Raw++

			code := core.PadCode(raw.Code4, 4)
			if _, skip := r.excluded[code]; skip {
				stats.Excluded++
				continue
			}

			value := strings.TrimSpace(raw.Value)
			employment, ok := parseNumber(value)
			if !ok {
				stats.NonNumeric++
				r.logger.Warn("dropping non-numeric employment value",
					"source", table.Name, "code4", code, "age", raw.Age, "year", raw.Year, "value", raw.Value)
				continue
			}

			c := candidate{
				record: core.Record{
					Code4:      code,
					Occupation: raw.Occupation,
					Age:        strings.TrimSpace(raw.Age),
					Year:       strings.TrimSpace(raw.Year),
					Value:      value,
					Employment: employment,
				},
				priority: table.Priority,
				source:   table.Name,
			}

			key := c.record.Key()
			current, seen := best[key]
			if !seen {
				best[key] = c
				continue
			}
			stats.Superseded++
			if c.priority > current.priority {
				best[key] = c
			}
		}
	}

	if stats.Raw == 0 {
		r.logger.Warn("all source tables are empty", "tables", len(tables))
		return nil, core.ErrNoRawData
	}

	records := make([]core.Record, 0, len(best))
	for _, c := range best {
		records = append(records, c.record)
	}
	SortRecords(records)
	stats.Kept = len(records)

	r.logger.Info("reconciled source tables",
		"tables", len(tables),
		"raw", stats.Raw,
		"excluded", stats.Excluded,
		"non_numeric", stats.NonNumeric,
		"superseded", stats.Superseded,
		"kept", stats.Kept,
	)

	if stats.Kept == 0 {
		return nil, core.ErrNoRawData
	}

	return &Result{Records: records, Stats: stats}, nil
}

// AsSource re-expresses the reconciled table as a single source table.
func (res *Result) AsSource(name string) core.SourceTable {
	out := core.SourceTable{Name: name, Records: make([]core.RawRecord, len(res.Records))}
	for i, rec := range res.Records {
		out.Records[i] = core.RawRecord{
			Code4:       rec.Code4,
			Occupation:  rec.Occupation,
			Age:         rec.Age,
			Year:        rec.Year,
			Value:       rec.Value,
			SourceTable: name,
		}
	}
	return out
}

// SortRecords orders records by (code4, age, year).
func SortRecords(records []core.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Code4 != b.Code4 {
			return a.Code4 < b.Code4
		}
		if a.Age != b.Age {
			return a.Age < b.Age
		}
		return a.Year < b.Year
	})
}

// checkPriorities rejects tables that share a priority; the merge needs a strict ranking.
func checkPriorities(tables []core.SourceTable) error {
	seen := make(map[int]string, len(tables))
	for _, t := range tables {
		if other, dup := seen[t.Priority]; dup {
			return fmt.Errorf("source tables %q and %q share priority %d", other, t.Name, t.Priority)
		}
		seen[t.Priority] = t.Name
	}
	return nil
}

// parseNumber parses a finite number, ignoring surrounding whitespace.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
