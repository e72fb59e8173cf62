package record

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("scoring record not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrMissingRequired  = errors.New("required fields missing")
)

type RecordRepository interface {
	Create(ctx context.Context, r *ScoringRecord) error
	GetByID(ctx context.Context, id int64) (*ScoringRecord, error)
	Update(ctx context.Context, id int64, p RecordPatch) error
	Delete(ctx context.Context, id int64) error
	// Search matches query against patient name or id, newest first.
	Search(ctx context.Context, query string, limit, offset int) ([]*ScoringRecord, int, error)
	// ListByPatient also filters on name when patientName is non-empty.
	ListByPatient(ctx context.Context, patientID, patientName string) ([]*ScoringRecord, error)
	ListPatients(ctx context.Context) ([]*PatientSummary, error)
}

const recordCols = `id, patient_name, patient_id, score_type, form_data, score_result, created_at, updated_at`

// patchColumn is one column assignment of an UPDATE.
type patchColumn struct {
	name  string
	value interface{}
}

// columns lists the assignments of p in a stable order. UpdatedAt is
// returned as time.Time; stores convert it as they need.
func (p RecordPatch) columns() []patchColumn {
	var cols []patchColumn
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, patchColumn{name, *v})
		}
	}
	add("patient_name", p.PatientName)
	add("patient_id", p.PatientID)
	add("score_type", p.ScoreType)
	add("form_data", p.FormData)
	add("score_result", p.ScoreResult)
	if p.UpdatedAt != nil {
		cols = append(cols, patchColumn{"updated_at", p.UpdatedAt.UTC()})
	}
	return cols
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a user query into a substring LIKE pattern matched
// with ESCAPE '\'.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}
