// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/output"
)

const extractHeader = "code_4,occupation,age,year,value\n"

// SetupTestProject creates a temporary project with two overlapping extracts
// and a config file whose cache lives inside the project.
//
// The later extract revises 1211/30-34/2020 from 100 to 120.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	rawDir := filepath.Join(tmpDir, "data", "raw")
	if err := os.MkdirAll(rawDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", rawDir, err)
	}

	older := extractHeader +
		"1211,Finance managers,30-34,2020,100\n" +
		"1211,Finance managers,35-39,2020,40\n" +
		"1212,HR managers,30-34,2020,10\n" +
		"2111,Physicists,30-34,2020,7\n"
	newer := extractHeader +
		"1211,Finance managers,30-34,2020,120\n" +
		"0002,Unknown,30-34,2020,999\n" +
		"2111,Physicists,30-34,2021,9\n"

	writeFile(t, filepath.Join(rawDir, "older.csv"), older)
	writeFile(t, filepath.Join(rawDir, "newer.csv"), newer)

	cfg := `taxonomy: ssyk2012
sources:
  - name: older
    path: data/raw/older.csv
  - name: newer
    path: data/raw/newer.csv
excluded_codes: ["0000", "0002"]
year_min: 2014
year_max: 2023
cache_path: .ssykroll/cache.db
log_format: text
`
	writeFile(t, filepath.Join(tmpDir, "ssykroll.yaml"), cfg)

	return tmpDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation: balanced code
// fences, non-empty headers and table rows with matching column counts.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	cols := -1
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
		if !strings.HasPrefix(trimmed, "|") {
			cols = -1
			continue
		}
		n := strings.Count(trimmed, "|")
		if cols >= 0 && n != cols {
			t.Errorf("table row at line %d has %d separators, want %d", i+1, n, cols)
		}
		cols = n
	}
}
