package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) scanRow(row pgx.Row) (*ScoringRecord, error) {
	var rec ScoringRecord
	err := row.Scan(&rec.ID, &rec.PatientName, &rec.PatientID, &rec.ScoreType,
		&rec.FormData, &rec.ScoreResult, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.UpdatedAt != nil {
		t := rec.UpdatedAt.UTC()
		rec.UpdatedAt = &t
	}
	return &rec, nil
}

func (r *recordRepoPG) collect(rows pgx.Rows) ([]*ScoringRecord, error) {
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

func (r *recordRepoPG) Create(ctx context.Context, rec *ScoringRecord) error {
	now := nowUTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scoring_record (patient_name, patient_id, score_type, form_data, score_result, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		RETURNING id`,
		rec.PatientName, rec.PatientID, rec.ScoreType, rec.FormData, rec.ScoreResult, now,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert scoring record: %w", err)
	}
	rec.CreatedAt = now
	rec.UpdatedAt = &now
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id int64) (*ScoringRecord, error) {
	return r.scanRow(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM scoring_record WHERE id = $1`, id))
}

func (r *recordRepoPG) Update(ctx context.Context, id int64, p RecordPatch) error {
	cols := p.columns()
	if len(cols) == 0 {
		return ErrNoFieldsToUpdate
	}
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c.name, i+1)
		args = append(args, c.value)
	}
	args = append(args, id)

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE scoring_record SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("update scoring record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scoring_record WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scoring record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*ScoringRecord, int, error) {
	const where = ` WHERE patient_name ILIKE $1 ESCAPE '\' OR patient_id ILIKE $1 ESCAPE '\'`
	pattern := likePattern(query)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scoring_record`+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scoring records: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+recordCols+` FROM scoring_record`+where+
		` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search scoring records: %w", err)
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID, patientName string) ([]*ScoringRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if patientName != "" {
		rows, err = r.pool.Query(ctx, `SELECT `+recordCols+` FROM scoring_record
			WHERE patient_id = $1 AND patient_name = $2 ORDER BY created_at DESC, id DESC`, patientID, patientName)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+recordCols+` FROM scoring_record
			WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`, patientID)
	}
	if err != nil {
		return nil, fmt.Errorf("list records of patient %s: %w", patientID, err)
	}
	return r.collect(rows)
}

func (r *recordRepoPG) ListPatients(ctx context.Context) ([]*PatientSummary, error) {
	rows, err := r.pool.Query(ctx, `
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
		var p PatientSummary
		if err := rows.Scan(&p.PatientName, &p.PatientID, &p.RecordCount, &p.LastRecordDate); err != nil {
			return nil, err
		}
		if p.LastRecordDate != nil {
			t := p.LastRecordDate.UTC()
			p.LastRecordDate = &t
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
