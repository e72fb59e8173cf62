package record

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

// -- Mock Repository --

type mockRecordRepo struct {
	records map[int64]*ScoringRecord
	nextID  int64
	clock   time.Time
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{
		records: make(map[int64]*ScoringRecord),
		clock:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *mockRecordRepo) Create(_ context.Context, r *ScoringRecord) error {
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	now := m.clock
	r.ID = m.nextID
	r.CreatedAt = now
	r.UpdatedAt = &now
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id int64) (*ScoringRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRecordRepo) Update(_ context.Context, id int64, p RecordPatch) error {
	if p.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.PatientName, p.PatientName)
	set(&r.PatientID, p.PatientID)
	set(&r.ScoreType, p.ScoreType)
	set(&r.FormData, p.FormData)
	set(&r.ScoreResult, p.ScoreResult)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		r.UpdatedAt = &t
	}
	return nil
}

func (m *mockRecordRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockRecordRepo) sorted(keep func(*ScoringRecord) bool) []*ScoringRecord {
	var out []*ScoringRecord
	for _, r := range m.records {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockRecordRepo) Search(_ context.Context, query string, limit, offset int) ([]*ScoringRecord, int, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	all := m.sorted(func(r *ScoringRecord) bool {
		return strings.Contains(strings.ToLower(r.PatientName), q) || strings.Contains(strings.ToLower(r.PatientID), q)
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRecordRepo) ListByPatient(_ context.Context, patientID, patientName string) ([]*ScoringRecord, error) {
	return m.sorted(func(r *ScoringRecord) bool {
		return r.PatientID == patientID && (patientName == "" || r.PatientName == patientName)
	}), nil
}

func (m *mockRecordRepo) ListPatients(_ context.Context) ([]*PatientSummary, error) {
	byKey := map[[2]string]*PatientSummary{}
	for _, r := range m.records {
		k := [2]string{r.PatientName, r.PatientID}
		p, ok := byKey[k]
		if !ok {
			p = &PatientSummary{PatientName: r.PatientName, PatientID: r.PatientID}
			byKey[k] = p
		}
		p.RecordCount++
		if p.LastRecordDate == nil || r.CreatedAt.After(*p.LastRecordDate) {
			t := r.CreatedAt
			p.LastRecordDate = &t
		}
	}
	var out []*PatientSummary
	for _, p := range byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PatientName < out[j].PatientName })
	return out, nil
}

// -- Fixtures --

func newTestService() (*Service, *mockRecordRepo) {
	repo := newMockRecordRepo()
	return NewService(repo, scoring.Default(), false, zerolog.Nop()), repo
}

func childPughB() scoring.FormData {
	return scoring.FormData{
		"totalBilirubin":        2.5,
		"albumin":               3.0,
		"prothrombinTime":       5,
		"ascites":               "mild",
		"hepaticEncephalopathy": "none",
	}
}

func childPughA() scoring.FormData {
	return scoring.FormData{
		"totalBilirubin":        1.5,
		"albumin":               4.0,
		"prothrombinTime":       2,
		"ascites":               "none",
		"hepaticEncephalopathy": "none",
	}
}

// -- Tests --

func TestService_Score(t *testing.T) {
	svc, _ := newTestService()

	out, err := svc.Score(context.Background(), scoring.ChildPughID, childPughB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result.TotalScore != 9 || out.Result.Result != "B级" {
		t.Errorf("expected 9 B级, got %d %s", out.Result.TotalScore, out.Result.Result)
	}
	if out.Config.ID != scoring.ChildPughID {
		t.Errorf("expected config %s, got %s", scoring.ChildPughID, out.Config.ID)
	}
}

func TestService_Score_NormalizesStrings(t *testing.T) {
	svc, _ := newTestService()
	data := childPughB()
	data["totalBilirubin"] = "2.5"
	data["prothrombinTime"] = "5s"

	out, err := svc.Score(context.Background(), scoring.ChildPughID, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result.TotalScore != 9 {
		t.Errorf("expected 9, got %d", out.Result.TotalScore)
	}
	if out.Data["totalBilirubin"] != 2.5 {
		t.Errorf("expected normalized bilirubin 2.5, got %v", out.Data["totalBilirubin"])
	}
	if data["totalBilirubin"] != "2.5" {
		t.Error("expected caller's form to be left untouched")
	}
}

func TestService_Score_UnknownConfig(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Score(context.Background(), "sofa", scoring.FormData{})
	if !errors.Is(err, scoring.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestService_Score_MissingRequired(t *testing.T) {
	svc, _ := newTestService()
	data := childPughB()
	delete(data, "albumin")
	data["ascites"] = ""

	_, err := svc.Score(context.Background(), scoring.ChildPughID, data)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("expected ErrMissingRequired, got %v", err)
	}
	if !strings.Contains(err.Error(), "albumin, ascites") {
		t.Errorf("expected missing field ids in declaration order, got %q", err.Error())
	}
}

func TestService_Score_ZeroIsAValue(t *testing.T) {
	svc, _ := newTestService()
	data := childPughA()
	data["prothrombinTime"] = 0

	if _, err := svc.Score(context.Background(), scoring.ChildPughID, data); err != nil {
		t.Errorf("expected 0 to count as submitted, got %v", err)
	}
}

func TestService_Score_StrictRejectsUnknownOption(t *testing.T) {
	svc := NewService(newMockRecordRepo(), scoring.Default(), true, zerolog.Nop())
	data := childPughA()
	data["ascites"] = "enormous"

	_, err := svc.Score(context.Background(), scoring.ChildPughID, data)
	var verr *scoring.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has(scoring.IssueUnknownOption) {
		t.Errorf("expected unknown_option issue, got %v", verr.Issues)
	}
}

func TestService_CreateScored(t *testing.T) {
	svc, repo := newTestService()

	rec, out, err := svc.CreateScored(context.Background(), Patient{Name: " 张三 ", ID: "P001"}, scoring.ChildPughID, childPughB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected record id to be assigned")
	}
	if rec.PatientName != "张三" {
		t.Errorf("expected trimmed patient name, got %q", rec.PatientName)
	}
	if rec.ScoreType != "Child-Pugh 评分" {
		t.Errorf("expected score type to be the config name, got %q", rec.ScoreType)
	}
	if rec.ScoreResult != "B级 (9分)" {
		t.Errorf("unexpected score result %q", rec.ScoreResult)
	}
	if out.Result.TotalScore != 9 {
		t.Errorf("expected total 9, got %d", out.Result.TotalScore)
	}

	stored, _ := repo.GetByID(context.Background(), rec.ID)
	data, err := stored.Data()
	if err != nil {
		t.Fatalf("decode stored form: %v", err)
	}
	if data["ascites"] != "mild" {
		t.Errorf("expected stored form data, got %v", data)
	}
}

func TestService_CreateScored_DoesNotPersistOnError(t *testing.T) {
	svc, repo := newTestService()
	_, _, err := svc.CreateScored(context.Background(), Patient{Name: "张三", ID: "P001"}, scoring.ChildPughID, scoring.FormData{})
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("expected ErrMissingRequired, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Errorf("expected nothing stored, got %d records", len(repo.records))
	}
}

func TestService_Rescore(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec, _, err := svc.CreateScored(ctx, Patient{Name: "张三", ID: "P001"}, scoring.ChildPughID, childPughB())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := *rec.UpdatedAt

	updated, out, err := svc.Rescore(ctx, rec.ID, childPughA())
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if updated.ScoreResult != "A级 (5分)" {
		t.Errorf("expected A级 (5分), got %q", updated.ScoreResult)
	}
	if out.Result.TotalScore != 5 {
		t.Errorf("expected 5, got %d", out.Result.TotalScore)
	}
	if updated.ScoreType != rec.ScoreType || updated.PatientID != "P001" {
		t.Error("expected patient and score type to be kept")
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.After(created) {
		t.Errorf("expected updated_at to advance past %v, got %v", created, updated.UpdatedAt)
	}
}

func TestService_Rescore_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Rescore(context.Background(), 404, childPughA())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec, _, _ := svc.CreateScored(ctx, Patient{Name: "张三", ID: "P001"}, scoring.ChildPughID, childPughB())

	name := "张三丰"
	updated, err := svc.UpdateRecord(ctx, rec.ID, RecordPatch{PatientName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PatientName != name {
		t.Errorf("expected %s, got %s", name, updated.PatientName)
	}
	if updated.ScoreResult != rec.ScoreResult {
		t.Error("expected untouched fields to be kept")
	}

	if _, err := svc.UpdateRecord(ctx, rec.ID, RecordPatch{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("expected ErrNoFieldsToUpdate, got %v", err)
	}
}

func TestService_DeleteRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec, _, _ := svc.CreateScored(ctx, Patient{Name: "张三", ID: "P001"}, scoring.ChildPughID, childPughB())

	if err := svc.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetRecord(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteRecord(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestService_PatientQueries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, p := range []Patient{{"张三", "P001"}, {"张三", "P001"}, {"李四", "P002"}, {"王五", "P001"}} {
		if _, _, err := svc.CreateScored(ctx, p, scoring.ChildPughID, childPughA()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := svc.PatientRecords(ctx, "P001", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 records for P001, got %d (%v)", len(all), err)
	}
	named, _ := svc.PatientRecords(ctx, "P001", "张三")
	if len(named) != 2 {
		t.Errorf("expected 2 records for 张三/P001, got %d", len(named))
	}

	patients, _ := svc.ListPatients(ctx)
	if len(patients) != 3 {
		t.Errorf("expected 3 distinct patients, got %d", len(patients))
	}

	found, total, _ := svc.SearchRecords(ctx, "p00", 10, 0)
	if total != 4 || len(found) != 4 {
		t.Errorf("expected 4 matches, got %d/%d", len(found), total)
	}
	if !found[0].CreatedAt.After(found[3].CreatedAt) {
		t.Error("expected newest first")
	}
}

func TestService_Configs(t *testing.T) {
	svc, _ := newTestService()
	if got := len(svc.Configs()); got != 2 {
		t.Errorf("expected 2 configs, got %d", got)
	}
	cfg, err := svc.Config("APACHE II")
	if err != nil || cfg.ID != scoring.ApacheIIID {
		t.Errorf("expected lookup by name to resolve apache-ii, got %v %v", cfg, err)
	}
}

func TestFormatScoreResult(t *testing.T) {
	got := FormatScoreResult(scoring.Result{TotalScore: 12, Result: "中风险"})
	if got != "中风险 (12分)" {
		t.Errorf("unexpected %q", got)
	}
}
