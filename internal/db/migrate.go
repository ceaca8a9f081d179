package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run
// on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateLegacyReports(db); err != nil {
		return fmt.Errorf("importing legacy reports: %w", err)
	}
	return nil
}

// migrateLegacyReports copies rows from the older "reports" table, written
// by the first version of the tool, into case_records. Rows already present
// are left alone, so the import can run on every open.
func migrateLegacyReports(db *sql.DB) error {
	ctx := context.Background()

	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'reports'`).Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("probing reports table: %w", err)
	}

	// The legacy table stored CURRENT_TIMESTAMP text ("YYYY-MM-DD HH:MM:SS").
	_, err = db.ExecContext(ctx, `INSERT OR IGNORE INTO case_records (
		id, kind, subject_name, fields, current_stage, completed, created_at, updated_at
	) SELECT
		id,
		report_type,
		COALESCE(NULLIF(TRIM(child_name), ''), 'Unknown'),
		data,
		COALESCE(current_section, 0),
		CASE WHEN is_completed THEN 1 ELSE 0 END,
		strftime('%Y-%m-%dT%H:%M:%S.000000000Z', COALESCE(created_at, CURRENT_TIMESTAMP)),
		strftime('%Y-%m-%dT%H:%M:%S.000000000Z', COALESCE(updated_at, CURRENT_TIMESTAMP))
	FROM reports`)
	if err != nil {
		return fmt.Errorf("copying reports rows: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS case_records (
		id            TEXT PRIMARY KEY,
		kind          TEXT NOT NULL,
		subject_name  TEXT NOT NULL DEFAULT 'Unknown',
		fields        TEXT NOT NULL DEFAULT '{}',
		current_stage INTEGER NOT NULL DEFAULT 0 CHECK(current_stage >= 0),
		completed     INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_case_records_updated ON case_records(updated_at)`,

	// Set when the report document is first generated.
	`ALTER TABLE case_records ADD COLUMN completed_at TEXT`,
}
