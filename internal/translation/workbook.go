// Package translation loads the SSYK 2012 label workbook used to overlay
// English occupation names on the rollup.
package translation

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// headerRow is the zero-based index of the header row on every level sheet.
const headerRow = 3

// SheetName returns the workbook sheet holding labels for a level.
func SheetName(l core.Level) string {
	return fmt.Sprintf("%d-digit", int(l))
}

// LoadWorkbook reads the translation workbook at path. An empty path yields
// nil translations. A level whose sheet is absent stays untranslated.
func LoadWorkbook(path string) (core.Translations, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat translation workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open translation workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := make(core.Translations, len(core.Levels))
	for _, l := range core.Levels {
		idx, err := f.GetSheetIndex(SheetName(l))
		if err != nil {
			return nil, fmt.Errorf("failed to look up sheet %s: %w", SheetName(l), err)
		}
		if idx < 0 {
			continue
		}

		rows, err := f.GetRows(SheetName(l))
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", SheetName(l), err)
		}
		labels, err := parseSheet(rows, l)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", SheetName(l), err)
		}
		out[l] = labels
	}
	return out, nil
}

var errNoHeader = errors.New("header row not found")

func parseSheet(rows [][]string, l core.Level) (map[string]string, error) {
	if len(rows) <= headerRow {
		return nil, errNoHeader
	}

	codeCol, nameCol := -1, -1
	for i, h := range rows[headerRow] {
		h = strings.TrimSpace(h)
		if codeCol < 0 && strings.Contains(h, "SSYK") {
			codeCol = i
		}
		if nameCol < 0 && strings.Contains(h, "Name") {
			nameCol = i
		}
	}
	if codeCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%w: need columns containing SSYK and Name", errNoHeader)
	}

	labels := make(map[string]string)
	for _, row := range rows[headerRow+1:] {
		if codeCol >= len(row) {
			continue
		}
		code := normalizeCode(row[codeCol])
		if code == "" {
			continue
		}
		var name string
		if nameCol < len(row) {
			name = norm.NFC.String(strings.TrimSpace(row[nameCol]))
		}
		labels[core.PadCode(code, int(l))] = name
	}
	return labels, nil
}

// normalizeCode strips a float rendering such as "11.0" that spreadsheets
// produce for numeric code cells.
func normalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return s
}
