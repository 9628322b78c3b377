package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// cacheSchemaVersion changes whenever the rollup computation changes in a
// way that invalidates stored results.
const cacheSchemaVersion = "ssykroll-rollup-v1"

// missingDigest stands in for the digest of an absent file.
const missingDigest = "missing"

type cacheKeySource struct {
	Name     string `json:"name"`
	Format   string `json:"format"`
	Priority int    `json:"priority"`
	Digest   string `json:"digest"`
}

type cacheKeyInput struct {
	Version           string           `json:"version"`
	Taxonomy          string           `json:"taxonomy"`
	Sources           []cacheKeySource `json:"sources"`
	SourcesVersion    string           `json:"sources_version"`
	ExcludedCodes     []string         `json:"excluded_codes"`
	ExcludedAges      []string         `json:"excluded_ages"`
	YearMin           int              `json:"year_min"`
	YearMax           int              `json:"year_max"`
	TranslationDigest string           `json:"translation_digest"`
}

// CacheKey returns the digest of every input that determines the rollup:
// settings, source order and the content of each source and label file.
func (e *Engine) CacheKey() (string, error) {
	return ComputeCacheKey(e.project)
}

// ComputeCacheKey returns the cache key for a project configuration.
func ComputeCacheKey(p core.ProjectConfig) (string, error) {
	in := cacheKeyInput{
		Version:        cacheSchemaVersion,
		Taxonomy:       p.Taxonomy,
		SourcesVersion: p.SourcesVersion,
		ExcludedCodes:  normalizeSet(p.ExcludedCodes, func(s string) string { return core.PadCode(s, 4) }),
		ExcludedAges:   normalizeSet(p.ExcludedAges, strings.TrimSpace),
		YearMin:        p.YearMin,
		YearMax:        p.YearMax,
	}

	for i, src := range p.Sources {
		digest, err := fileDigest(src.Path)
		if err != nil {
			return "", fmt.Errorf("failed to hash source %s: %w", src.Name, err)
		}
		format := strings.ToLower(src.Format)
		if format == "" {
			format = core.SourceFormatCSV
		}
		in.Sources = append(in.Sources, cacheKeySource{
			Name:     src.Name,
			Format:   format,
			Priority: i,
			Digest:   digest,
		})
	}

	if p.TranslationPath != "" {
		digest, err := fileDigest(p.TranslationPath)
		if err != nil {
			return "", fmt.Errorf("failed to hash translation workbook: %w", err)
		}
		in.TranslationDigest = digest
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// fileDigest hashes a file's content. An absent file hashes to a fixed
// marker so that a source appearing later changes the key.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from project config
	if errors.Is(err, fs.ErrNotExist) {
		return missingDigest, nil
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func normalizeSet(values []string, norm func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = norm(v)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
