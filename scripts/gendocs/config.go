package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/config"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// ConfigField describes one configuration key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "taxonomy", Type: "string", Default: core.DefaultTaxonomy, Description: "Classification label written to every row"},
		{Name: "sources", Type: "list", Default: "three extracts under data/raw", Description: "Extracts in priority order; later entries win on overlap"},
		{Name: "sources_version", Type: "string", Description: "Free-form tag mixed into the cache key"},
		{Name: "excluded_codes", Type: "list", Default: "0000, 0002", Description: "Administrative level 4 codes dropped before reconciliation"},
		{Name: "excluded_ages", Type: "list", Default: "65-69 years", Description: "Age groups dropped while loading extracts"},
		{Name: "year_min", Type: "int", Default: strconv.Itoa(config.DefaultYearMin), Description: "Earliest year kept (0 for no bound)"},
		{Name: "year_max", Type: "int", Default: strconv.Itoa(config.DefaultYearMax), Description: "Latest year kept (0 for no bound)"},
		{Name: "translation_path", Type: "string", Description: "Workbook with 1-digit to 4-digit label sheets"},
		{Name: "cache_path", Type: "string", Default: config.DefaultCacheFile, Description: "SQLite rollup cache; empty disables caching"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "One of " + strings.Join(config.OutputFormats, ", ")},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Enable debug logging"},
		{Name: "log_format", Type: "string", Default: config.DefaultLogFormat, Description: "text or json"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "ssykroll configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("ssykroll reads %s (or %s) from the working directory or the nearest parent. "+
		"Relative paths resolve against the directory holding that file.",
		InlineCode(config.ConfigFileName), InlineCode(config.ConfigFileNameAlt)))

	var rows [][]string
	for _, f := range getConfigSchema() {
		def := "-"
		if f.Default != "" {
			def = InlineCode(f.Default)
		}
		env := InlineCode(config.EnvPrefix + strings.ToUpper(f.Name))
		rows = append(rows, []string{InlineCode(f.Name), f.Type, def, env, f.Description})
	}
	w.Table([]string{"Key", "Type", "Default", "Environment", "Description"}, rows)

	w.Header(2, "Sources")
	w.Paragraph("Each source has a " + InlineCode("name") + ", a " + InlineCode("path") +
		" and an optional " + InlineCode("format") + " (" + InlineCode(core.SourceFormatCSV) +
		" or " + InlineCode(core.SourceFormatPxWeb) + ").")

	w.Header(2, "Full Example")
	var example strings.Builder
	example.WriteString("taxonomy: " + core.DefaultTaxonomy + "\nsources:\n")
	for _, s := range config.DefaultSources() {
		fmt.Fprintf(&example, "  - name: %s\n    path: %s\n    format: %s\n", s.Name, s.Path, s.Format)
	}
	fmt.Fprintf(&example, "excluded_codes: [\"0000\", \"0002\"]\nexcluded_ages: [\"65-69 years\"]\n")
	fmt.Fprintf(&example, "year_min: %d\nyear_max: %d\n", config.DefaultYearMin, config.DefaultYearMax)
	fmt.Fprintf(&example, "translation_path: data/ssyk2012_en.xlsx\ncache_path: %s\n", config.DefaultCacheFile)
	w.CodeBlock("yaml", example.String())

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
