package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LzzJustBeYou/MedScore/internal/platform/db"
)

// nowUTC is truncated to microseconds so Postgres and SQLite round-trip the
// same value.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type recordRepoSQLite struct{ db *sql.DB }

// NewRecordRepoSQLite expects a handle opened with db.OpenSQLite.
func NewRecordRepoSQLite(sqlDB *sql.DB) RecordRepository {
	return &recordRepoSQLite{db: sqlDB}
}

func (r *recordRepoSQLite) scanRow(row scanner) (*ScoringRecord, error) {
	var (
		rec       ScoringRecord
		createdAt string
		updatedAt sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.PatientName, &rec.PatientID, &rec.ScoreType,
		&rec.FormData, &rec.ScoreResult, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid && updatedAt.String != "" {
		t, err := db.ParseTime(updatedAt.String)
		if err != nil {
			return nil, err
		}
		rec.UpdatedAt = &t
	}
	return &rec, nil
}

func (r *recordRepoSQLite) collect(rows *sql.Rows) ([]*ScoringRecord, error) {
	defer rows.Close()
	var items []*ScoringRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *recordRepoSQLite) Create(ctx context.Context, rec *ScoringRecord) error {
	now := nowUTC()
	ts := db.FormatTime(now)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scoring_record (patient_name, patient_id, score_type, form_data, score_result, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.PatientName, rec.PatientID, rec.ScoreType, rec.FormData, rec.ScoreResult, ts, ts)
	if err != nil {
		return fmt.Errorf("insert scoring record: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert scoring record: %w", err)
	}
	rec.CreatedAt = now
	rec.UpdatedAt = &now
	return nil
}

func (r *recordRepoSQLite) GetByID(ctx context.Context, id int64) (*ScoringRecord, error) {
	return r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+recordCols+` FROM scoring_record WHERE id = ?`, id))
}

func (r *recordRepoSQLite) Update(ctx context.Context, id int64, p RecordPatch) error {
	cols := p.columns()
	if len(cols) == 0 {
		return ErrNoFieldsToUpdate
	}
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = c.name + " = ?"
		if t, ok := c.value.(time.Time); ok {
			args = append(args, db.FormatTime(t))
			continue
		}
		args = append(args, c.value)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE scoring_record SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update scoring record %d: %w", id, err)
	}
	return requireAffected(res)
}

func (r *recordRepoSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scoring_record WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scoring record %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoSQLite) Search(ctx context.Context, query string, limit, offset int) ([]*ScoringRecord, int, error) {
	const where = ` WHERE patient_name LIKE ? ESCAPE '\' OR patient_id LIKE ? ESCAPE '\'`
	pattern := likePattern(query)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scoring_record`+where, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scoring records: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+recordCols+` FROM scoring_record`+where+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search scoring records: %w", err)
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *recordRepoSQLite) ListByPatient(ctx context.Context, patientID, patientName string) ([]*ScoringRecord, error) {
	q := `SELECT ` + recordCols + ` FROM scoring_record WHERE patient_id = ?`
	args := []interface{}{patientID}
	if patientName != "" {
		q += ` AND patient_name = ?`
		args = append(args, patientName)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list records of patient %s: %w", patientID, err)
	}
	return r.collect(rows)
}

func (r *recordRepoSQLite) ListPatients(ctx context.Context) ([]*PatientSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT patient_name, patient_id, COUNT(*), MAX(created_at)
		FROM scoring_record
		GROUP BY patient_name, patient_id
		ORDER BY patient_name, patient_id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*PatientSummary
	for rows.Next() {
		var (
			p    PatientSummary
			last sql.NullString
		)
		if err := rows.Scan(&p.PatientName, &p.PatientID, &p.RecordCount, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t, err := db.ParseTime(last.String)
			if err != nil {
				return nil, err
			}
			p.LastRecordDate = &t
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
