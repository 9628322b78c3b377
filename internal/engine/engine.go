// Package engine runs the employment rollup pipeline end to end.
// It loads the configured extracts, reconciles them, derives the code
// hierarchy, builds the combined rollup table and caches the result.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/metrics"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/state"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Engine orchestrates rollup runs.
type Engine struct {
	project core.ProjectConfig
	store   core.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Project holds the pipeline settings
	Project core.ProjectConfig
	// CachePath is the path to the SQLite cache database. Empty disables
	// caching and run history; ":memory:" keeps them for the process only.
	CachePath string
	// Metrics receives pipeline metrics (optional)
	Metrics *metrics.Metrics
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine and opens its cache store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Project.Taxonomy == "" {
		cfg.Project.Taxonomy = core.DefaultTaxonomy
	}

	logger.Debug("initializing engine",
		"taxonomy", cfg.Project.Taxonomy,
		"sources", len(cfg.Project.Sources),
		"cache_path", cfg.CachePath,
	)

	e := &Engine{
		project: cfg.Project,
		metrics: cfg.Metrics,
		logger:  logger,
	}

	if cfg.CachePath == "" {
		return e, nil
	}

	if cfg.CachePath != ":memory:" {
		if dir := filepath.Dir(cfg.CachePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.CachePath); err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	e.store = store

	return e, nil
}

// Close releases the cache store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store returns the cache store, or nil when caching is disabled.
func (e *Engine) Store() core.Store {
	return e.store
}

// Project returns the pipeline settings the engine runs with.
func (e *Engine) Project() core.ProjectConfig {
	return e.project
}
