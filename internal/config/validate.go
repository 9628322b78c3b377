package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Taxonomy == "" {
		return fmt.Errorf("taxonomy is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Path == "" {
			return fmt.Errorf("source %s: path is required", s.Name)
		}
		switch strings.ToLower(s.Format) {
		case "", core.SourceFormatCSV, core.SourceFormatPxWeb:
		default:
			return fmt.Errorf("source %s: unknown format %q (want %s or %s)",
				s.Name, s.Format, core.SourceFormatCSV, core.SourceFormatPxWeb)
		}
	}

	if c.YearMin < 0 || c.YearMax < 0 {
		return fmt.Errorf("year bounds must not be negative")
	}
	if c.YearMin != 0 && c.YearMax != 0 && c.YearMin > c.YearMax {
		return fmt.Errorf("year_min %d is after year_max %d", c.YearMin, c.YearMax)
	}

	for _, code := range c.ExcludedCodes {
		code = strings.TrimSpace(code)
		if code == "" || len(code) > 4 || !core.IsDigits(code) {
			return fmt.Errorf("invalid excluded code %q: must be 1 to 4 digits", code)
		}
	}

	if c.OutputFormat != "" && !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (want one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}

	return nil
}
