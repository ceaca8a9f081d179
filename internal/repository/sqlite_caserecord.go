package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jess/internal/db"
	"github.com/alexanderramin/jess/internal/domain"
)

// maxIDAttempts bounds how many fresh ids Put tries when a generated id is
// already taken.
const maxIDAttempts = 4

// SQLiteCaseRecordRepo implements CaseRecordRepo using a SQLite database.
type SQLiteCaseRecordRepo struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLiteCaseRecordRepo creates a new SQLiteCaseRecordRepo.
func NewSQLiteCaseRecordRepo(conn db.DBTX) *SQLiteCaseRecordRepo {
	return &SQLiteCaseRecordRepo{db: conn, now: time.Now}
}

// Put writes rec and updates its ID and timestamps in place.
//
// A record without an id gets a generated one and is inserted; if the
// short id collides with an existing row a new id is derived from a later
// timestamp. A record with an id is upserted.
func (r *SQLiteCaseRecordRepo) Put(ctx context.Context, rec *domain.CaseRecord) (string, error) {
	if rec == nil {
		return "", errors.New("put: nil record")
	}
	fields := rec.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}

	subject := strings.TrimSpace(rec.SubjectName)
	if subject == "" {
		subject = domain.UnknownSubject
	}

	now := r.now().UTC()
	completedAt := rec.CompletedAt
	if rec.Completed && completedAt == nil {
		completedAt = &now
	}
	if !rec.Completed {
		completedAt = nil
	}

	if rec.ID != "" {
		if err := r.upsert(ctx, rec.ID, rec, subject, payload, completedAt, now); err != nil {
			return "", err
		}
		r.stamp(rec, rec.ID, subject, completedAt, now)
		return rec.ID, nil
	}

	for attempt := range maxIDAttempts {
		id := domain.GenerateRecordID(subject, rec.Kind, now.Add(time.Duration(attempt)))
		err := r.insert(ctx, id, rec, subject, payload, completedAt, now)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		r.stamp(rec, id, subject, completedAt, now)
		return id, nil
	}
	return "", storageErr("inserting case record", fmt.Errorf("no free id after %d attempts", maxIDAttempts))
}

func (r *SQLiteCaseRecordRepo) insert(ctx context.Context, id string, rec *domain.CaseRecord,
	subject string, payload []byte, completedAt *time.Time, now time.Time) error {
	query := `INSERT INTO case_records (id, kind, subject_name, fields, current_stage, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id,
		string(rec.Kind),
		subject,
		string(payload),
		rec.CurrentStage,
		boolToInt(rec.Completed),
		nullableTimeToString(completedAt),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return storageErr("inserting case record", err)
	}
	return nil
}

func (r *SQLiteCaseRecordRepo) upsert(ctx context.Context, id string, rec *domain.CaseRecord,
	subject string, payload []byte, completedAt *time.Time, now time.Time) error {
	query := `INSERT INTO case_records (id, kind, subject_name, fields, current_stage, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			subject_name = excluded.subject_name,
			fields = excluded.fields,
			current_stage = excluded.current_stage,
			completed = excluded.completed,
			completed_at = CASE WHEN excluded.completed = 1
				THEN COALESCE(case_records.completed_at, excluded.completed_at)
				ELSE NULL END,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		id,
		string(rec.Kind),
		subject,
		string(payload),
		rec.CurrentStage,
		boolToInt(rec.Completed),
		nullableTimeToString(completedAt),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return storageErr("upserting case record", err)
	}
	return nil
}

func (r *SQLiteCaseRecordRepo) stamp(rec *domain.CaseRecord, id, subject string, completedAt *time.Time, now time.Time) {
	rec.ID = id
	rec.SubjectName = subject
	rec.CompletedAt = completedAt
	rec.UpdatedAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
}

func (r *SQLiteCaseRecordRepo) Get(ctx context.Context, id string) (*domain.CaseRecord, error) {
	query := `SELECT id, kind, subject_name, fields, current_stage, completed, completed_at, created_at, updated_at
		FROM case_records WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var (
		rec                  domain.CaseRecord
		kind, fields         string
		completed            int
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&rec.ID, &kind, &rec.SubjectName, &fields, &rec.CurrentStage,
		&completed, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("case record %q: %w", id, ErrNotFound)
		}
		return nil, storageErr("scanning case record", err)
	}

	rec.Kind = domain.RecordKind(kind)
	rec.Completed = intToBool(completed)
	rec.CompletedAt = parseNullableTime(completedAt)
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, storageErr("decoding fields", err)
	}
	if rec.Fields == nil {
		rec.Fields = make(map[string]string)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, storageErr("parsing created_at", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, storageErr("parsing updated_at", err)
	}
	return &rec, nil
}

func (r *SQLiteCaseRecordRepo) List(ctx context.Context, limit int) ([]domain.RecordSummary, error) {
	if limit <= 0 {
		return []domain.RecordSummary{}, nil
	}
	query := `SELECT id, kind, subject_name, updated_at, completed
		FROM case_records ORDER BY updated_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageErr("listing case records", err)
	}
	defer rows.Close()

	summaries := make([]domain.RecordSummary, 0, limit)
	for rows.Next() {
		var (
			s         domain.RecordSummary
			kind      string
			updatedAt string
			completed int
		)
		if err := rows.Scan(&s.ID, &kind, &s.SubjectName, &updatedAt, &completed); err != nil {
			return nil, storageErr("scanning case record row", err)
		}
		s.Kind = domain.RecordKind(kind)
		s.Completed = intToBool(completed)
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, storageErr("parsing updated_at", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating case records", err)
	}
	return summaries, nil
}

func (r *SQLiteCaseRecordRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM case_records WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("deleting case record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("deleting case record", err)
	}
	return n > 0, nil
}
