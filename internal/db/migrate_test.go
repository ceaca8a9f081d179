package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Run migrations a second time should succeed.
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesCaseRecords(t *testing.T) {
	db := openTestDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='case_records'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "case_records", name)

	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name='idx_case_records_updated'`).Scan(&name)
	require.NoError(t, err)
}

func TestMigrate_AddsCompletedAtColumn(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.Query(`PRAGMA table_info(case_records)`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Contains(t, cols, "completed_at")
}

func TestMigrate_RejectsNegativeStage(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO case_records (id, kind, current_stage, created_at, updated_at)
		VALUES ('neg', 'ehc_assessment', -1, 'x', 'x')`)
	assert.Error(t, err)
}

func TestMigrate_ImportsLegacyReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE reports (
		id TEXT PRIMARY KEY,
		report_type TEXT NOT NULL,
		child_name TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		data TEXT NOT NULL,
		current_section INTEGER DEFAULT 0,
		is_completed BOOLEAN DEFAULT FALSE
	)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO reports (id, report_type, child_name, data, current_section, is_completed)
		VALUES ('ab12cd34', 'ehc_assessment', '', '{"referral_reason":"reading"}', 2, 0)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var subject, fields, updatedAt string
	var stage int
	err = db.QueryRow(`SELECT subject_name, fields, current_stage, updated_at FROM case_records WHERE id = 'ab12cd34'`).
		Scan(&subject, &fields, &stage, &updatedAt)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", subject)
	assert.JSONEq(t, `{"referral_reason":"reading"}`, fields)
	assert.Equal(t, 2, stage)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.0{9}Z$`, updatedAt)

	// Re-opening must not duplicate or fail on the imported row.
	require.NoError(t, Migrate(db))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM case_records`).Scan(&n))
	assert.Equal(t, 1, n)
}
