package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("year-min", 0, "")
	fs.Int("year-max", 0, "")
	fs.String("cache", "", "")
	fs.String("translations", "", "")
	fs.StringP("output", "o", "", "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, core.DefaultTaxonomy, cfg.Taxonomy)
	assert.Equal(t, []string{"0000", "0002"}, cfg.ExcludedCodes)
	assert.Equal(t, []string{"65-69 years"}, cfg.ExcludedAges)
	assert.Equal(t, DefaultYearMin, cfg.YearMin)
	assert.Equal(t, DefaultYearMax, cfg.YearMax)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, cfg.ConfigFile)

	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, "14_to_18", cfg.Sources[0].Name)
	assert.Equal(t, "20_to_23", cfg.Sources[2].Name)

	root, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	cwd, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, root, cwd)
	assert.True(t, filepath.IsAbs(cfg.CachePath))
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultCacheFile), cfg.CachePath)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileFoundUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
taxonomy: ssyk2012
sources:
  - name: old
    path: raw/old.csv
  - name: new
    path: /abs/new.json
    format: pxweb
excluded_codes: ["0002"]
year_min: 2016
year_max: 0
translation_path: labels/ssyk2012_en.xlsx
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	projectRoot := filepath.Dir(cfg.ConfigFile)
	assert.Equal(t, projectRoot, cfg.ProjectRoot)
	require.Len(t, cfg.Sources, 2, "file list replaces default sources")
	assert.Equal(t, filepath.Join(projectRoot, "raw", "old.csv"), cfg.Sources[0].Path)
	assert.Equal(t, "/abs/new.json", cfg.Sources[1].Path)
	assert.Equal(t, core.SourceFormatPxWeb, cfg.Sources[1].Format)
	assert.Equal(t, []string{"0002"}, cfg.ExcludedCodes)
	assert.Equal(t, 2016, cfg.YearMin)
	assert.Equal(t, 0, cfg.YearMax)
	assert.Equal(t, filepath.Join(projectRoot, "labels", "ssyk2012_en.xlsx"), cfg.TranslationPath)

	project := cfg.Project()
	minYear, maxYear := project.YearBounds()
	require.NotNil(t, minYear)
	assert.Equal(t, 2016, *minYear)
	assert.Nil(t, maxYear)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := writeConfig(t, dir, "year_min: 2015\nyear_max: 2020\noutput: text\n")

	t.Setenv("SSYKROLL_YEAR_MIN", "2017")
	t.Setenv("SSYKROLL_YEAR_MAX", "2019")
	t.Setenv("SSYKROLL_EXCLUDED_CODES", "0000, 0002,9999")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--year-max", "2018", "--cache", "tmp/c.db"}))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, 2017, cfg.YearMin, "env overrides file")
	assert.Equal(t, 2018, cfg.YearMax, "flag overrides env")
	assert.Equal(t, "text", cfg.OutputFormat, "unset flag does not override file")
	assert.Equal(t, []string{"0000", "0002", "9999"}, cfg.ExcludedCodes)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "tmp", "c.db"), cfg.CachePath)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "sources: [unclosed\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Taxonomy:      core.DefaultTaxonomy,
			Sources:       DefaultSources(),
			ExcludedCodes: []string{"0000", "0002"},
			YearMin:       2014,
			YearMax:       2023,
			OutputFormat:  "auto",
			LogFormat:     "text",
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(_ *Config) {}},
		{name: "unbounded years", mutate: func(c *Config) { c.YearMin, c.YearMax = 0, 0 }},
		{name: "no taxonomy", mutate: func(c *Config) { c.Taxonomy = "" }, errSubstr: "taxonomy"},
		{name: "no sources", mutate: func(c *Config) { c.Sources = nil }, errSubstr: "at least one source"},
		{
			name:      "duplicate source",
			mutate:    func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) },
			errSubstr: "duplicate source name",
		},
		{name: "source without path", mutate: func(c *Config) { c.Sources[1].Path = "" }, errSubstr: "path is required"},
		{name: "unknown format", mutate: func(c *Config) { c.Sources[0].Format = "xlsx" }, errSubstr: "unknown format"},
		{name: "inverted years", mutate: func(c *Config) { c.YearMin = 2024 }, errSubstr: "after year_max"},
		{name: "negative year", mutate: func(c *Config) { c.YearMax = -1 }, errSubstr: "negative"},
		{name: "bad excluded code", mutate: func(c *Config) { c.ExcludedCodes = []string{"00x2"} }, errSubstr: "invalid excluded code"},
		{name: "long excluded code", mutate: func(c *Config) { c.ExcludedCodes = []string{"12345"} }, errSubstr: "invalid excluded code"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "invalid output format"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "logfmt" }, errSubstr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestProject_Copies(t *testing.T) {
	cfg := &Config{Sources: DefaultSources(), ExcludedCodes: []string{"0000"}}
	p := cfg.Project()
	p.Sources[0].Name = "changed"
	p.ExcludedCodes[0] = "9999"

	assert.Equal(t, "14_to_18", cfg.Sources[0].Name)
	assert.Equal(t, "0000", cfg.ExcludedCodes[0])
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Equal(t, loggerKey{}, LoggerKey())
}

func TestConfigContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := &Config{Taxonomy: core.DefaultTaxonomy}
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
