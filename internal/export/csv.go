// Package export writes the combined rollup table to files and databases.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// WriteCSV writes rows with a header in core.Columns order. A missing child
// count is written as an empty cell.
func WriteCSV(w io.Writer, rows []core.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(Record(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record renders a row as strings in core.Columns order.
func Record(r core.Row) []string {
	nChildren := ""
	if r.NChildren != nil {
		nChildren = strconv.Itoa(*r.NChildren)
	}
	return []string{
		r.Taxonomy,
		strconv.Itoa(int(r.Level)),
		r.Code,
		r.Label,
		strconv.Itoa(r.Year),
		nChildren,
		r.AgeGroup,
		FormatFloat(r.Employment),
		FormatFloat(r.EmploymentTotal),
	}
}

// FormatFloat renders an employment figure without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSVFile writes rows to path atomically: the data goes to a temporary
// file in the same directory, which is then renamed over path.
func WriteCSVFile(path string, rows []core.Row) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, rows); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move csv into place: %w", err)
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) ([]core.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(core.Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, col := range core.Columns {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i+1, header[i], col)
		}
	}

	var rows []core.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVFile reads a table written by WriteCSVFile.
func ReadCSVFile(path string) ([]core.Row, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is user-provided output location
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func parseRecord(rec []string) (core.Row, error) {
	var row core.Row
	var err error

	row.Taxonomy = rec[0]
	if row.Level, err = core.ParseLevel(rec[1]); err != nil {
		return row, err
	}
	row.Code = rec[2]
	row.Label = rec[3]
	if row.Year, err = strconv.Atoi(rec[4]); err != nil {
		return row, fmt.Errorf("invalid year %q: %w", rec[4], err)
	}
	if rec[5] != "" {
		n, err := strconv.Atoi(rec[5])
		if err != nil {
			return row, fmt.Errorf("invalid n_children %q: %w", rec[5], err)
		}
		row.NChildren = &n
	}
	row.AgeGroup = rec[6]
	if row.Employment, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return row, fmt.Errorf("invalid employment %q: %w", rec[7], err)
	}
	if row.EmploymentTotal, err = strconv.ParseFloat(rec[8], 64); err != nil {
		return row, fmt.Errorf("invalid employment_total %q: %w", rec[8], err)
	}
	return row, nil
}
