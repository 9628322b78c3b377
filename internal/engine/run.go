package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/hierarchy"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/metrics"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/reconcile"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/rollup"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/source"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/translation"
	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Cache lookup results reported to metrics.
const (
	cacheHit  = "hit"
	cacheMiss = "miss"
	cacheSkip = "skip"
)

// RunOptions controls a single run.
type RunOptions struct {
	// Refresh recomputes the rollup even when a cached copy exists and
	// replaces the cached copy.
	Refresh bool
	// NoCache neither reads nor writes the cache and records no run.
	NoCache bool
}

// Result is the outcome of a run.
type Result struct {
	Run      *core.Run
	CacheKey string
	Cached   bool
	Rows     []core.Row

	// Stage statistics; zero when the rows came from the cache.
	Reconcile    reconcile.Stats
	Hierarchy    hierarchy.Stats
	Untranslated map[core.Level]int
}

// Run produces the combined rollup table, from the cache when possible.
// Nothing is cached unless the whole pipeline succeeds.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (res *Result, err error) {
	start := time.Now()

	key, err := e.CacheKey()
	if err != nil {
		return nil, err
	}
	res = &Result{CacheKey: key}

	e.logger.Info("starting run", "cache_key", shortKey(key), "refresh", opts.Refresh, "no_cache", opts.NoCache)

	useCache := e.store != nil && !opts.NoCache
	if useCache {
		run, err := e.store.CreateRun(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		res.Run = run
		e.logger.Debug("created run", "run_id", run.ID)
	}

	status := core.RunStatusCompleted
	defer func() {
		if err != nil {
			status = core.RunStatusFailed
		}
		e.metrics.ObserveRun(status, time.Since(start))
		if res == nil || res.Run == nil {
			return
		}
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if cerr := e.store.CompleteRun(res.Run.ID, status, errMsg); cerr != nil {
			e.logger.Warn("failed to record run completion", "run_id", res.Run.ID, "error", cerr)
			return
		}
		if run, gerr := e.store.GetRun(res.Run.ID); gerr == nil {
			res.Run = run
		}
	}()

	if useCache && !opts.Refresh {
		rows, ok, err := e.store.GetRollup(key)
		if err != nil {
			e.logger.Warn("failed to read cached rollup, recomputing", "cache_key", shortKey(key), "error", err)
		} else if ok {
			e.metrics.IncrementCache(cacheHit)
			e.metrics.SetRollupRows(rows)
			e.logger.Info("loaded rollup from cache", "cache_key", shortKey(key), "rows", len(rows))
			status = core.RunStatusCached
			res.Cached = true
			res.Rows = rows
			return res, nil
		}
	}
	if useCache {
		e.metrics.IncrementCache(cacheMiss)
	} else {
		e.metrics.IncrementCache(cacheSkip)
	}

	if err := e.compute(ctx, res); err != nil {
		return failed(res, err)
	}

	if useCache {
		entry := &core.CacheEntry{
			Key:      key,
			RunID:    res.Run.ID,
			Taxonomy: e.project.Taxonomy,
		}
		entry.YearMin, entry.YearMax = e.project.YearBounds()
		if err := e.store.PutRollup(entry, res.Rows); err != nil {
			return failed(res, fmt.Errorf("failed to cache rollup: %w", err))
		}
	}

	e.logger.Info("run completed", "rows", len(res.Rows), "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// failed returns a result that only carries the run record, so callers never
// see partial rows.
func failed(res *Result, err error) (*Result, error) {
	return &Result{Run: res.Run, CacheKey: res.CacheKey}, err
}

// compute runs every pipeline stage and fills res.
func (e *Engine) compute(ctx context.Context, res *Result) error {
	tables, err := source.Load(ctx, e.project.Sources, source.Options{
		ExcludedAges: e.project.ExcludedAges,
		Logger:       e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	reconciled, err := reconcile.New(reconcile.Config{
		ExcludedCodes: e.project.ExcludedCodes,
		Logger:        e.logger,
	}).Reconcile(tables)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	res.Reconcile = reconciled.Stats
	e.metrics.AddDropped(metrics.StageReconcile, "excluded_code", reconciled.Stats.Excluded)
	e.metrics.AddDropped(metrics.StageReconcile, "non_numeric", reconciled.Stats.NonNumeric)
	e.metrics.AddSuperseded(reconciled.Stats.Superseded)
	if err := ctx.Err(); err != nil {
		return err
	}

	yearMin, yearMax := e.project.YearBounds()
	derived, err := hierarchy.New(hierarchy.Config{
		YearMin: yearMin,
		YearMax: yearMax,
		Logger:  e.logger,
	}).Derive(reconciled.Records)
	if err != nil {
		return err
	}
	res.Hierarchy = derived.Stats
	e.metrics.AddDropped(metrics.StageHierarchy, "invalid_code", derived.Stats.InvalidCode)
	e.metrics.AddDropped(metrics.StageHierarchy, "invalid_year", derived.Stats.YearDropped)
	e.metrics.AddDropped(metrics.StageHierarchy, "out_of_range", derived.Stats.OutOfRange)
	e.metrics.AddZeroed(derived.Stats.Zeroed)
	if len(derived.Records) == 0 {
		return fmt.Errorf("no records left after hierarchy derivation: %w", core.ErrNoRecords)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	translations, err := translation.LoadWorkbook(e.project.TranslationPath)
	if err != nil {
		e.logger.Warn("failed to load translations, keeping source labels",
			"path", e.project.TranslationPath, "error", err)
		translations = nil
	} else if translations != nil {
		e.logger.Debug("loaded translations", "labels", translations.Len())
	}

	rows, err := rollup.Build(ctx, e.project.Taxonomy, derived.Records, translations)
	if err != nil {
		return err
	}
	if err := rollup.Verify(rows); err != nil {
		return fmt.Errorf("rollup verification failed: %w", err)
	}

	missing := rollup.Untranslated(rows, translations)
	res.Untranslated = make(map[core.Level]int, len(core.Levels))
	for _, r := range missing {
		res.Untranslated[r.Level]++
	}
	for _, l := range core.Levels {
		e.metrics.SetUntranslated(l, res.Untranslated[l])
	}
	if translations != nil {
		e.logger.Debug("codes without translation", "count", len(missing))
	}

	e.metrics.SetRollupRows(rows)
	res.Rows = rows
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
