package rollup

import (
	"context"
	"fmt"
	"sort"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Assemble joins totals and child counts onto every level's age view and
// stacks levels 1..4 into one table sorted by (level, code, year, age).
//
// A (year, code) pair without a child count keeps a nil NChildren.
func Assemble(taxonomy string, views map[core.Level]LevelView, children ChildCounts) ([]core.Row, error) {
	size := 0
	for _, v := range views {
		size += len(v.Age)
	}
	if size == 0 {
		return nil, fmt.Errorf("rollup assembly: %w", core.ErrNoRecords)
	}

	rows := make([]core.Row, 0, size)
	for _, l := range core.Levels {
		view, ok := views[l]
		if !ok {
			continue
		}

		totals := make(map[totalKey]float64, len(view.Totals))
		for _, t := range view.Totals {
			totals[totalKey{year: t.Year, code: t.Code, label: t.Label}] = t.EmploymentTotal
		}
		counts := children.index(l)

		for _, a := range view.Age {
			row := core.Row{
				Taxonomy:        taxonomy,
				Level:           l,
				Code:            a.Code,
				Label:           a.Label,
				Year:            a.Year,
				AgeGroup:        a.Age,
				Employment:      a.Employment,
				EmploymentTotal: totals[totalKey{year: a.Year, code: a.Code, label: a.Label}],
			}
			if n, ok := counts[yearCode{year: a.Year, code: a.Code}]; ok {
				row.NChildren = &n
			}
			rows = append(rows, row)
		}
	}

	SortRows(rows)
	return rows, nil
}

// SortRows orders rows by (level, code, year, age).
func SortRows(rows []core.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.AgeGroup < b.AgeGroup
	})
}

// Build runs the child counter and the level aggregator over the same
// hierarchical table, assembles the combined table and applies translations.
func Build(ctx context.Context, taxonomy string, records []core.HierRecord, translations core.Translations) ([]core.Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("rollup: %w", core.ErrNoRecords)
	}

	children := CountChildren(records)

	views, err := AggregateAll(ctx, records)
	if err != nil {
		return nil, err
	}

	rows, err := Assemble(taxonomy, views, children)
	if err != nil {
		return nil, err
	}

	return ApplyLabels(rows, translations), nil
}
