package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

// ScoringRecord is one persisted scoring of a patient. FormData holds the
// submitted values as JSON text; ScoreResult is the display string shown in
// record lists, e.g. "B级 (9分)".
type ScoringRecord struct {
	ID          int64      `json:"id"`
	PatientName string     `json:"patient_name"`
	PatientID   string     `json:"patient_id"`
	ScoreType   string     `json:"score_type"`
	FormData    string     `json:"form_data"`
	ScoreResult string     `json:"score_result"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Data decodes FormData.
func (r *ScoringRecord) Data() (scoring.FormData, error) {
	data := scoring.FormData{}
	if r.FormData == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(r.FormData), &data); err != nil {
		return nil, fmt.Errorf("decode form data of record %d: %w", r.ID, err)
	}
	return data, nil
}

// PatientSummary groups records by patient name and id.
type PatientSummary struct {
	PatientName    string     `json:"patient_name"`
	PatientID      string     `json:"patient_id"`
	RecordCount    int        `json:"record_count"`
	LastRecordDate *time.Time `json:"last_record_date,omitempty"`
}

// RecordPatch is a partial update. Nil fields are left unchanged.
type RecordPatch struct {
	PatientName *string
	PatientID   *string
	ScoreType   *string
	FormData    *string
	ScoreResult *string
	UpdatedAt   *time.Time
}

func (p RecordPatch) IsEmpty() bool {
	return p.PatientName == nil && p.PatientID == nil && p.ScoreType == nil &&
		p.FormData == nil && p.ScoreResult == nil && p.UpdatedAt == nil
}

// Patient identifies who a record belongs to.
type Patient struct {
	Name string
	ID   string
}

// FormatScoreResult renders the stored result string.
func FormatScoreResult(res scoring.Result) string {
	return fmt.Sprintf("%s (%d分)", res.Result, res.TotalScore)
}
