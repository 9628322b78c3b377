package output

import (
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/export"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// RowJSON is the JSON shape of a rollup row.
type RowJSON struct {
	Taxonomy        string  `json:"taxonomy"`
	Level           int     `json:"level"`
	Code            string  `json:"code"`
	Label           string  `json:"label"`
	Year            int     `json:"year"`
	NChildren       *int    `json:"n_children"`
	Age             string  `json:"age"`
	Employment      float64 `json:"employment"`
	EmploymentTotal float64 `json:"employment_total"`
}

// ToRowJSON converts rollup rows for JSON output.
func ToRowJSON(rows []core.Row) []RowJSON {
	out := make([]RowJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowJSON{
			Taxonomy:        r.Taxonomy,
			Level:           int(r.Level),
			Code:            r.Code,
			Label:           r.Label,
			Year:            r.Year,
			NChildren:       r.NChildren,
			Age:             r.AgeGroup,
			Employment:      r.Employment,
			EmploymentTotal: r.EmploymentTotal,
		})
	}
	return out
}

// Rows writes rollup rows in the effective mode. CSV output is identical to
// the exported file.
func (r *Renderer) Rows(rows []core.Row) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(ToRowJSON(rows))
	case ModeCSV:
		return export.WriteCSV(r.out, rows)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, export.Record(row))
	}
	if err := r.Table(core.Columns, records); err != nil {
		return err
	}
	if r.EffectiveMode() == ModeText {
		r.Printf("(%d rows)\n", len(rows))
	}
	return nil
}
