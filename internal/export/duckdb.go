package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// DuckDBTable is the table the rollup is written to.
const DuckDBTable = "employment_rollup"

const createRollupTable = `CREATE OR REPLACE TABLE ` + DuckDBTable + ` (
	taxonomy         VARCHAR NOT NULL,
	level            INTEGER NOT NULL,
	code             VARCHAR NOT NULL,
	label            VARCHAR NOT NULL,
	year             INTEGER NOT NULL,
	n_children       INTEGER,
	age              VARCHAR NOT NULL,
	employment       DOUBLE NOT NULL,
	employment_total DOUBLE NOT NULL
)`

// WriteDuckDB replaces the rollup table in the DuckDB database at path.
// Use ":memory:" for a throwaway database.
func WriteDuckDB(ctx context.Context, path string, rows []core.Row) error {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return WriteTable(ctx, db, rows)
}

// WriteTable replaces the rollup table using an open DuckDB connection.
// The whole write is one transaction.
func WriteTable(ctx context.Context, db *sql.DB, rows []core.Row) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, createRollupTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", DuckDBTable, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+DuckDBTable+` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		var nChildren any
		if r.NChildren != nil {
			nChildren = int64(*r.NChildren)
		}
		if _, err = stmt.ExecContext(ctx, r.Taxonomy, int64(r.Level), r.Code, r.Label, int64(r.Year),
			nChildren, r.AgeGroup, r.Employment, r.EmploymentTotal); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
