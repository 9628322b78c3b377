package rollup

import "github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"

// ApplyLabels returns a copy of rows whose labels are replaced by the
// translation of the row's own level. Codes are never matched across levels.
// Rows without a translation keep their existing label.
func ApplyLabels(rows []core.Row, translations core.Translations) []core.Row {
	out := make([]core.Row, len(rows))
	copy(out, rows)
	if len(translations) == 0 {
		return out
	}

	for i := range out {
		if label, ok := translations.Lookup(out[i].Level, out[i].Code); ok {
			out[i].Label = label
		}
	}
	return out
}

// Untranslated returns the distinct (level, code) pairs that have no
// translation entry, in row order.
func Untranslated(rows []core.Row, translations core.Translations) []core.Row {
	type lc struct {
		level core.Level
		code  string
	}
	seen := make(map[lc]struct{})
	var missing []core.Row
	for _, r := range rows {
		k := lc{level: r.Level, code: r.Code}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := translations.Lookup(r.Level, r.Code); !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
