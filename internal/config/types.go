// Package config loads ssykroll configuration.
//
// Values are layered with koanf: built-in defaults, then ssykroll.yaml, then
// SSYKROLL_* environment variables, then explicitly set command-line flags.
package config

import (
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Config holds all configuration options.
type Config struct {
	Taxonomy        string              `koanf:"taxonomy"`
	Sources         []core.SourceConfig `koanf:"sources"`
	SourcesVersion  string              `koanf:"sources_version"`
	ExcludedCodes   []string            `koanf:"excluded_codes"`
	ExcludedAges    []string            `koanf:"excluded_ages"`
	YearMin         int                 `koanf:"year_min"`
	YearMax         int                 `koanf:"year_max"`
	TranslationPath string              `koanf:"translation_path"`
	CachePath       string              `koanf:"cache_path"`
	OutputFormat    string              `koanf:"output"`
	Verbose         bool                `koanf:"verbose"`
	LogFormat       string              `koanf:"log_format"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// Project returns the pipeline settings.
func (c *Config) Project() core.ProjectConfig {
	return core.ProjectConfig{
		Taxonomy:        c.Taxonomy,
		Sources:         append([]core.SourceConfig(nil), c.Sources...),
		SourcesVersion:  c.SourcesVersion,
		ExcludedCodes:   append([]string(nil), c.ExcludedCodes...),
		ExcludedAges:    append([]string(nil), c.ExcludedAges...),
		YearMin:         c.YearMin,
		YearMax:         c.YearMax,
		TranslationPath: c.TranslationPath,
	}
}

// Config file names, in lookup order.
const (
	ConfigFileName    = "ssykroll.yaml"
	ConfigFileNameAlt = "ssykroll.yml"
)

// Default configuration values.
const (
	DefaultCacheFile = ".ssykroll/cache.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat = "text"
	DefaultYearMin   = 2014
	DefaultYearMax   = 2023
)

// Output formats accepted by the output setting.
var OutputFormats = []string{"auto", "text", "markdown", "json", "csv"}

// DefaultSources mirrors the published employment extracts, in priority
// order: where years overlap the later table wins.
func DefaultSources() []core.SourceConfig {
	return []core.SourceConfig{
		{Name: "14_to_18", Path: "data/raw/14_to_18.csv", Format: core.SourceFormatCSV},
		{Name: "19_to_21", Path: "data/raw/19_to_21.csv", Format: core.SourceFormatCSV},
		{Name: "20_to_23", Path: "data/raw/20_to_23.csv", Format: core.SourceFormatCSV},
	}
}

// defaults returns the lowest-precedence configuration layer.
func defaults() map[string]any {
	sources := make([]any, 0, 3)
	for _, s := range DefaultSources() {
		sources = append(sources, map[string]any{"name": s.Name, "path": s.Path, "format": s.Format})
	}
	return map[string]any{
		"taxonomy":       core.DefaultTaxonomy,
		"sources":        sources,
		"excluded_codes": []string{"0000", "0002"},
		"excluded_ages":  []string{"65-69 years"},
		"year_min":       DefaultYearMin,
		"year_max":       DefaultYearMax,
		"cache_path":     DefaultCacheFile,
		"output":         DefaultOutput,
		"verbose":        false,
		"log_format":     DefaultLogFormat,
	}
}
