package core

import (
	"fmt"
	"strings"
)

// DefaultTaxonomy is the classification the rollup is tagged with.
const DefaultTaxonomy = "ssyk2012"

// Level is the digit width of an occupation code.
// Level 4 is the leaf, level 1 the root.
type Level int

// Hierarchy levels.
const (
	Level1 Level = 1
	Level2 Level = 2
	Level3 Level = 3
	Level4 Level = 4
)

// Levels lists the hierarchy levels in output order.
var Levels = []Level{Level1, Level2, Level3, Level4}

// Valid reports whether l is one of the four hierarchy levels.
func (l Level) Valid() bool {
	return l >= Level1 && l <= Level4
}

// String returns the level as used in logs, e.g. "level3".
func (l Level) String() string {
	return fmt.Sprintf("level%d", int(l))
}

// ParseLevel converts "1".."4" (or "level1".."level4") to a Level.
func ParseLevel(s string) (Level, error) {
	v := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "level")
	if len(v) == 1 && v[0] >= '1' && v[0] <= '4' {
		return Level(v[0] - '0'), nil
	}
	return 0, fmt.Errorf("invalid level %q: must be 1, 2, 3 or 4", s)
}

// RawRecord is one row of the raw fetch contract. All fields are loosely typed
// strings exactly as produced by the extract.
type RawRecord struct {
	Code4       string
	Occupation  string
	Age         string
	Year        string
	Value       string
	SourceTable string
}

// SourceTable is one raw extract together with its priority.
// A higher priority wins when extracts overlap.
type SourceTable struct {
	Name     string
	Priority int
	Records  []RawRecord
}

// Record is a reconciled record, unique per (Code4, Age, Year).
type Record struct {
	Code4      string
	Occupation string
	Age        string
	Year       string
	// Value is the surviving raw value text.
	Value string
	// Employment is Value coerced to a number.
	Employment float64
}

// Key returns the natural key of the record.
func (r Record) Key() RecordKey {
	return RecordKey{Code4: r.Code4, Age: r.Age, Year: r.Year}
}

// RecordKey is the natural key of a reconciled record.
type RecordKey struct {
	Code4 string
	Age   string
	Year  string
}

// HierRecord is a reconciled record extended with its derived hierarchy.
// Codes and Labels are indexed by Level; index 0 is unused.
type HierRecord struct {
	Year       int
	Age        string
	Codes      [5]string
	Labels     [5]string
	Employment float64
}

// Code returns the code at the given level.
func (h HierRecord) Code(l Level) string {
	return h.Codes[l]
}

// Label returns the label at the given level.
func (h HierRecord) Label(l Level) string {
	return h.Labels[l]
}

// ChildCount is the number of distinct direct children of a parent code in a year.
type ChildCount struct {
	Year       int
	Level      Level
	ParentCode string
	NChildren  int
}

// Row is one row of the combined rollup table.
type Row struct {
	Taxonomy string
	Level    Level
	Code     string
	Label    string
	Year     int
	// NChildren is nil when no child count matched the (year, code) pair.
	NChildren       *int
	AgeGroup        string
	Employment      float64
	EmploymentTotal float64
}

// Columns is the column order of the combined rollup table.
var Columns = []string{
	"taxonomy",
	"level",
	"code",
	"label",
	"year",
	"n_children",
	"age",
	"employment",
	"employment_total",
}

// Translations maps a level to its code -> label lookup.
// A nil map, or a missing level, means no translation is available.
type Translations map[Level]map[string]string

// Lookup returns the translated label for code at level.
func (t Translations) Lookup(l Level, code string) (string, bool) {
	if t == nil {
		return "", false
	}
	label, ok := t[l][code]
	return label, ok
}

// Len returns the total number of translation entries over all levels.
func (t Translations) Len() int {
	n := 0
	for _, m := range t {
		n += len(m)
	}
	return n
}

// PadCode trims code and left-pads it with zeros to width characters.
// Codes already at or beyond width are returned trimmed but otherwise unchanged.
func PadCode(code string, width int) string {
	code = strings.TrimSpace(code)
	if len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
