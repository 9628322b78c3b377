package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// CSV column names of the raw fetch contract.
const (
	ColCode4       = "code_4"
	ColOccupation  = "occupation"
	ColAge         = "age"
	ColYear        = "year"
	ColValue       = "value"
	ColSourceTable = "source_table"
)

var requiredColumns = []string{ColCode4, ColAge, ColYear, ColValue}

// ReadCSV parses a raw extract with a header row. Column names are matched
// case-insensitively; occupation and source_table are optional.
func ReadCSV(r io.Reader) ([]core.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []core.RawRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		out = append(out, core.RawRecord{
			Code4:       field(rec, ColCode4),
			Occupation:  field(rec, ColOccupation),
			Age:         field(rec, ColAge),
			Year:        field(rec, ColYear),
			Value:       field(rec, ColValue),
			SourceTable: field(rec, ColSourceTable),
		})
	}
	return out, nil
}
