package core

// Source formats understood by the raw loader.
const (
	SourceFormatCSV   = "csv"
	SourceFormatPxWeb = "pxweb"
)

// ProjectConfig holds project-level configuration.
type ProjectConfig struct {
	Taxonomy string `koanf:"taxonomy"`

	// Sources are listed in ascending priority: a later source wins on overlap.
	Sources        []SourceConfig `koanf:"sources"`
	SourcesVersion string         `koanf:"sources_version"`

	ExcludedCodes []string `koanf:"excluded_codes"`
	// ExcludedAges are applied by the raw loader, before reconciliation.
	ExcludedAges []string `koanf:"excluded_ages"`

	// YearMin and YearMax bound the inclusive year range; 0 means unbounded.
	YearMin int `koanf:"year_min"`
	YearMax int `koanf:"year_max"`

	// TranslationPath points at the label workbook (optional).
	TranslationPath string `koanf:"translation_path"`
}

// SourceConfig describes one raw extract.
type SourceConfig struct {
	Name   string `koanf:"name"`
	Path   string `koanf:"path"`
	Format string `koanf:"format"` // csv, pxweb
}

// YearBounds returns the configured year range as optional bounds.
func (c *ProjectConfig) YearBounds() (minYear, maxYear *int) {
	if c.YearMin != 0 {
		v := c.YearMin
		minYear = &v
	}
	if c.YearMax != 0 {
		v := c.YearMax
		maxYear = &v
	}
	return minYear, maxYear
}
