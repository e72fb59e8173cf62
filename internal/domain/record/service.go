package record

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

// Outcome is a scored form together with the config it was scored against.
type Outcome struct {
	Config *scoring.ScoreConfig `json:"-"`
	Data   scoring.FormData     `json:"-"`
	Result scoring.Result       `json:"result"`
}

type Service struct {
	repo   RecordRepository
	reg    *scoring.Registry
	calc   *scoring.Calculator
	logger zerolog.Logger
}

func NewService(repo RecordRepository, reg *scoring.Registry, strict bool, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		reg:    reg,
		calc:   scoring.NewCalculator(reg, scoring.WithStrict(strict)),
		logger: logger.With().Str("component", "record").Logger(),
	}
}

func (s *Service) Configs() []*scoring.ScoreConfig {
	return s.reg.List()
}

func (s *Service) Config(idOrName string) (*scoring.ScoreConfig, error) {
	cfg, ok := s.reg.Get(idOrName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", scoring.ErrConfigNotFound, idOrName)
	}
	return cfg, nil
}

// Score normalizes data, rejects forms with missing required fields and
// calculates the total.
func (s *Service) Score(ctx context.Context, configID string, data scoring.FormData) (*Outcome, error) {
	cfg, err := s.Config(configID)
	if err != nil {
		return nil, err
	}

	data = scoring.Normalize(cfg, data)
	if missing := scoring.MissingRequired(cfg, data); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, f := range missing {
			ids[i] = f.ID
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(ids, ", "))
	}

	res, err := s.calc.Calculate(cfg, data)
	if err != nil {
		return nil, err
	}
	if len(res.Warnings) > 0 {
		warnings := make([]string, len(res.Warnings))
		for i, w := range res.Warnings {
			warnings[i] = w.String()
		}
		s.logger.Warn().
			Str("score_config", cfg.ID).
			Int("total", res.TotalScore).
			Strs("warnings", warnings).
			Msg("scored with warnings")
	}
	return &Outcome{Config: cfg, Data: data, Result: res}, nil
}

// CreateScored scores data and stores the result for patient.
func (s *Service) CreateScored(ctx context.Context, patient Patient, configID string, data scoring.FormData) (*ScoringRecord, *Outcome, error) {
	out, err := s.Score(ctx, configID, data)
	if err != nil {
		return nil, nil, err
	}
	formData, err := json.Marshal(out.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode form data: %w", err)
	}

	rec := &ScoringRecord{
		PatientName: strings.TrimSpace(patient.Name),
		PatientID:   strings.TrimSpace(patient.ID),
		ScoreType:   out.Config.Name,
		FormData:    string(formData),
		ScoreResult: FormatScoreResult(out.Result),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, nil, err
	}
	s.logger.Info().
		Int64("record_id", rec.ID).
		Str("score_type", rec.ScoreType).
		Int("total", out.Result.TotalScore).
		Msg("scoring record created")
	return rec, out, nil
}

// Rescore recomputes an existing record from new form data, keeping its
// patient and scoring system.
func (s *Service) Rescore(ctx context.Context, id int64, data scoring.FormData) (*ScoringRecord, *Outcome, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.Score(ctx, rec.ScoreType, data)
	if err != nil {
		return nil, nil, err
	}
	formData, err := json.Marshal(out.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode form data: %w", err)
	}

	fd := string(formData)
	result := FormatScoreResult(out.Result)
	now := nowUTC()
	if err := s.repo.Update(ctx, id, RecordPatch{FormData: &fd, ScoreResult: &result, UpdatedAt: &now}); err != nil {
		return nil, nil, err
	}
	s.logger.Info().
		Int64("record_id", id).
		Str("score_type", rec.ScoreType).
		Int("total", out.Result.TotalScore).
		Msg("scoring record rescored")

	rec, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, out, nil
}

// UpdateRecord applies p and stamps updated_at.
func (s *Service) UpdateRecord(ctx context.Context, id int64, p RecordPatch) (*ScoringRecord, error) {
	if p.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if p.UpdatedAt == nil {
		now := nowUTC()
		p.UpdatedAt = &now
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetRecord(ctx context.Context, id int64) (*ScoringRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("record_id", id).Msg("scoring record deleted")
	return nil
}

func (s *Service) SearchRecords(ctx context.Context, query string, limit, offset int) ([]*ScoringRecord, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) PatientRecords(ctx context.Context, patientID, patientName string) ([]*ScoringRecord, error) {
	return s.repo.ListByPatient(ctx, patientID, patientName)
}

func (s *Service) ListPatients(ctx context.Context) ([]*PatientSummary, error) {
	return s.repo.ListPatients(ctx)
}
