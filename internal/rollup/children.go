// Package rollup aggregates hierarchical employment records into the combined
// four-level table: child counts, per-level age and total views, assembly and
// the label overlay.
package rollup

import (
	"sort"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// ChildCounts holds the child-count table of every level.
type ChildCounts map[core.Level][]core.ChildCount

// yearCode identifies a (year, code) pair.
type yearCode struct {
	year int
	code string
}

// CountChildren counts the distinct direct children of every parent code per
// year. Level 4 codes are leaves and count exactly one child, themselves.
func CountChildren(records []core.HierRecord) ChildCounts {
	type combo struct {
		year  int
		codes [5]string
	}
	seen := make(map[combo]struct{}, len(records))
	base := make([]combo, 0, len(records))
	for _, h := range records {
		c := combo{year: h.Year, codes: h.Codes}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		base = append(base, c)
	}

	// children[l][(year, parent)] is the set of distinct codes one level below.
	children := make(map[core.Level]map[yearCode]map[string]struct{}, len(core.Levels))
	for _, l := range core.Levels {
		children[l] = make(map[yearCode]map[string]struct{})
	}

	for _, c := range base {
		for _, l := range core.Levels {
			parent := yearCode{year: c.year, code: c.codes[l]}
			set, ok := children[l][parent]
			if !ok {
				set = make(map[string]struct{})
				children[l][parent] = set
			}
			if l == core.Level4 {
				continue
			}
			set[c.codes[l+1]] = struct{}{}
		}
	}

	counts := make(ChildCounts, len(core.Levels))
	for _, l := range core.Levels {
		out := make([]core.ChildCount, 0, len(children[l]))
		for parent, set := range children[l] {
			n := len(set)
			if l == core.Level4 {
				n = 1
			}
			out = append(out, core.ChildCount{Year: parent.year, Level: l, ParentCode: parent.code, NChildren: n})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Year != out[j].Year {
				return out[i].Year < out[j].Year
			}
			return out[i].ParentCode < out[j].ParentCode
		})
		counts[l] = out
	}

	return counts
}

// index returns the child counts of one level keyed by (year, code).
func (c ChildCounts) index(l core.Level) map[yearCode]int {
	idx := make(map[yearCode]int, len(c[l]))
	for _, cc := range c[l] {
		idx[yearCode{year: cc.Year, code: cc.ParentCode}] = cc.NChildren
	}
	return idx
}
