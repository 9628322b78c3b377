package rollup

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// AgeRow is one row of a level's age view.
type AgeRow struct {
	Year       int
	Age        string
	Code       string
	Label      string
	Employment float64
}

// TotalRow is one row of a level's total view.
type TotalRow struct {
	Year            int
	Code            string
	Label           string
	EmploymentTotal float64
}

// LevelView is the pair of aggregated views for one level.
type LevelView struct {
	Level  core.Level
	Age    []AgeRow
	Totals []TotalRow
}

type ageKey struct {
	year  int
	age   string
	code  string
	label string
}

type totalKey struct {
	year  int
	code  string
	label string
}

// Aggregate sums employment for one level, first by (year, age, code, label)
// and then, over the age view, by (year, code, label).
//
// The label of a (year, code) pair is resolved once, so extracts that spell
// an occupation differently cannot split its total.
func Aggregate(records []core.HierRecord, level core.Level) (LevelView, error) {
	if !level.Valid() {
		return LevelView{}, fmt.Errorf("invalid level %d", level)
	}

	labels := resolveLabels(records, level)

	sums := make(map[ageKey]float64)
	for _, h := range records {
		code := h.Code(level)
		k := ageKey{year: h.Year, age: h.Age, code: code, label: labels[yearCode{year: h.Year, code: code}]}
		sums[k] += h.Employment
	}

	view := LevelView{Level: level, Age: make([]AgeRow, 0, len(sums))}
	for k, v := range sums {
		view.Age = append(view.Age, AgeRow{Year: k.year, Age: k.age, Code: k.code, Label: k.label, Employment: v})
	}
	sort.Slice(view.Age, func(i, j int) bool {
		a, b := view.Age[i], view.Age[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Age < b.Age
	})

	// Totals are summed in the sorted age order so repeated runs add the
	// same values in the same sequence.
	totals := make(map[totalKey]float64)
	var order []totalKey
	for _, r := range view.Age {
		k := totalKey{year: r.Year, code: r.Code, label: r.Label}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] += r.Employment
	}
	view.Totals = make([]TotalRow, 0, len(order))
	for _, k := range order {
		view.Totals = append(view.Totals, TotalRow{Year: k.year, Code: k.code, Label: k.label, EmploymentTotal: totals[k]})
	}

	return view, nil
}

// AggregateAll computes the views of all four levels concurrently. The
// records slice is shared read-only; each level writes its own slot.
func AggregateAll(ctx context.Context, records []core.HierRecord) (map[core.Level]LevelView, error) {
	results := make([]LevelView, len(core.Levels))

	g, ctx := errgroup.WithContext(ctx)
	for i, l := range core.Levels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			view, err := Aggregate(records, l)
			if err != nil {
				return fmt.Errorf("failed to aggregate %s: %w", l, err)
			}
			results[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make(map[core.Level]LevelView, len(results))
	for _, v := range results {
		views[v.Level] = v
	}
	return views, nil
}

// resolveLabels picks one label per (year, code): the smallest non-empty label
// observed, or the empty string when none is set.
func resolveLabels(records []core.HierRecord, level core.Level) map[yearCode]string {
	labels := make(map[yearCode]string)
	for _, h := range records {
		k := yearCode{year: h.Year, code: h.Code(level)}
		label := h.Label(level)
		current, ok := labels[k]
		switch {
		case !ok:
			labels[k] = label
		case current == "" && label != "":
			labels[k] = label
		case label != "" && label < current:
			labels[k] = label
		}
	}
	return labels
}
