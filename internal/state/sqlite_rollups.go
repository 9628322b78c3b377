package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// GetRollup returns the rows stored under cacheKey in their original order.
// The boolean reports whether the key was present.
func (s *SQLiteStore) GetRollup(cacheKey string) ([]core.Row, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("database not opened")
	}

	var rowCount int64
	err := s.db.QueryRowContext(ctx(),
		`SELECT row_count FROM rollups WHERE cache_key = ?`, cacheKey,
	).Scan(&rowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rollup: %w", err)
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT taxonomy, level, code, label, year, n_children, age, employment, employment_total
		 FROM rollup_rows WHERE cache_key = ? ORDER BY ord`,
		cacheKey,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rollup rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]core.Row, 0, rowCount)
	for rows.Next() {
		var r core.Row
		var level int
		var nChildren sql.NullInt64
		if err := rows.Scan(&r.Taxonomy, &level, &r.Code, &r.Label, &r.Year, &nChildren,
			&r.AgeGroup, &r.Employment, &r.EmploymentTotal); err != nil {
			return nil, false, fmt.Errorf("failed to scan rollup row: %w", err)
		}
		r.Level = core.Level(level)
		if nChildren.Valid {
			n := int(nChildren.Int64)
			r.NChildren = &n
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate rollup rows: %w", err)
	}

	if int64(len(out)) != rowCount {
		return nil, false, fmt.Errorf("rollup %s is incomplete: %d of %d rows", cacheKey, len(out), rowCount)
	}

	return out, true, nil
}

// PutRollup stores rows under entry.Key, replacing any previous rollup with
// the same key. The write is a single transaction.
func (s *SQLiteStore) PutRollup(entry *core.CacheEntry, rows []core.Row) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("rollup cache key is required")
	}

	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx(), `DELETE FROM rollups WHERE cache_key = ?`, entry.Key); err != nil {
		return fmt.Errorf("failed to replace rollup: %w", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.RowCount = int64(len(rows))

	if _, err = tx.ExecContext(ctx(),
		`INSERT INTO rollups (cache_key, run_id, taxonomy, year_min, year_max, row_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Key, entry.RunID, entry.Taxonomy, nullableInt(entry.YearMin), nullableInt(entry.YearMax), entry.RowCount, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert rollup: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx(),
		`INSERT INTO rollup_rows (cache_key, ord, taxonomy, level, code, label, year, n_children, age, employment, employment_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare rollup row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		if _, err = stmt.ExecContext(ctx(), entry.Key, i, r.Taxonomy, int(r.Level), r.Code, r.Label,
			r.Year, nullableInt(r.NChildren), r.AgeGroup, r.Employment, r.EmploymentTotal); err != nil {
			return fmt.Errorf("failed to insert rollup row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollup: %w", err)
	}

	s.logger.Debug("stored rollup", slog.String("cache_key", entry.Key), slog.Int64("rows", entry.RowCount))
	return nil
}

// ListRollups returns every stored rollup, newest first.
func (s *SQLiteStore) ListRollups() ([]*core.CacheEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT cache_key, run_id, taxonomy, year_min, year_max, row_count, created_at
		 FROM rollups ORDER BY created_at DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rollups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*core.CacheEntry
	for rows.Next() {
		e := &core.CacheEntry{}
		var yearMin, yearMax sql.NullInt64
		if err := rows.Scan(&e.Key, &e.RunID, &e.Taxonomy, &yearMin, &yearMax, &e.RowCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rollup: %w", err)
		}
		e.YearMin = nullIntPtr(yearMin)
		e.YearMax = nullIntPtr(yearMax)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rollups: %w", err)
	}

	return entries, nil
}

// DeleteRollup removes the rollup stored under cacheKey. Deleting a missing
// key is not an error.
func (s *SQLiteStore) DeleteRollup(cacheKey string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.ExecContext(ctx(), `DELETE FROM rollups WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("failed to delete rollup: %w", err)
	}
	return nil
}

// ClearRollups removes every stored rollup and reports how many were removed.
func (s *SQLiteStore) ClearRollups() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx(), `DELETE FROM rollups`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear rollups: %w", err)
	}

	n, _ := result.RowsAffected()
	s.logger.Debug("cleared rollups", slog.Int64("count", n))
	return n, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
