package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// runAudit executes the audit middleware around h and returns the decoded
// log line, or nil when nothing was logged.
func runAudit(t *testing.T, c echo.Context, h echo.HandlerFunc) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	_ = Audit(logger)(h)(c)

	if buf.Len() == 0 {
		return nil
	}
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit output is not JSON: %v (%s)", err, buf.String())
	}
	return line
}

func auditContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(auth.WithUser(req.Context(), "dr-li", []string{auth.RolePhysician}))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAudit_RecordRead(t *testing.T) {
	c, _ := auditContext(http.MethodGet, "/api/v1/records/42")
	c.SetPath("/api/v1/records/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("request_id", "req-1")

	line := runAudit(t, c, okHandler)
	if line == nil {
		t.Fatal("expected an audit line")
	}

	want := map[string]interface{}{
		"message":     "phi_access",
		"type":        "audit",
		"request_id":  "req-1",
		"user_id":     "dr-li",
		"resource":    "records",
		"resource_id": "42",
		"action":      "read",
		"method":      "GET",
		"level":       "info",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s: got %v, want %v", k, line[k], v)
		}
	}
	if line["status"] != float64(200) {
		t.Errorf("status: got %v, want 200", line["status"])
	}
}

func TestAudit_PatientRecordsUsesRouteParam(t *testing.T) {
	c, _ := auditContext(http.MethodGet, "/api/v1/patients/P001/records")
	c.SetPath("/api/v1/patients/:patientId/records")
	c.SetParamNames("patientId")
	c.SetParamValues("P001")

	line := runAudit(t, c, okHandler)
	if line["patient_id"] != "P001" {
		t.Errorf("expected patient_id P001, got %v", line["patient_id"])
	}
	if line["resource"] != "patients" {
		t.Errorf("expected resource patients, got %v", line["resource"])
	}
	if line["action"] != "search" {
		t.Errorf("expected action search, got %v", line["action"])
	}
}

func TestAudit_PatientIDFromQuery(t *testing.T) {
	c, _ := auditContext(http.MethodGet, "/api/v1/records?patient_id=P002")

	line := runAudit(t, c, okHandler)
	if line["patient_id"] != "P002" {
		t.Errorf("expected patient_id P002, got %v", line["patient_id"])
	}
}

func TestAudit_ErrorStatusLoggedAsWarn(t *testing.T) {
	c, _ := auditContext(http.MethodDelete, "/api/v1/records/7")
	c.SetParamNames("id")
	c.SetParamValues("7")

	line := runAudit(t, c, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	})
	if line["level"] != "warn" {
		t.Errorf("expected warn level, got %v", line["level"])
	}
	if line["status"] != float64(404) {
		t.Errorf("expected status 404, got %v", line["status"])
	}
	if line["action"] != "delete" {
		t.Errorf("expected delete, got %v", line["action"])
	}
}

func TestAudit_SkipsNonAuditablePaths(t *testing.T) {
	for _, path := range []string{"/health", "/health/db", "/"} {
		c, _ := auditContext(http.MethodGet, path)
		if line := runAudit(t, c, okHandler); line != nil {
			t.Errorf("%s: expected no audit line, got %v", path, line)
		}
	}
}

func TestAudit_PropagatesHandlerError(t *testing.T) {
	c, _ := auditContext(http.MethodPost, "/api/v1/records")
	want := echo.NewHTTPError(http.StatusBadRequest, "bad")

	err := Audit(zerolog.Nop())(func(c echo.Context) error { return want })(c)
	if err != want {
		t.Errorf("expected handler error to propagate, got %v", err)
	}
}

func TestAuditAction(t *testing.T) {
	tests := []struct {
		method string
		path   string
		hasID  bool
		want   string
	}{
		{http.MethodGet, "/api/v1/records", false, "search"},
		{http.MethodGet, "/api/v1/records/1", true, "read"},
		{http.MethodHead, "/api/v1/records/1", true, "read"},
		{http.MethodPost, "/api/v1/records", false, "create"},
		{http.MethodPut, "/api/v1/records/1", true, "update"},
		{http.MethodPatch, "/api/v1/records/1", true, "update"},
		{http.MethodDelete, "/api/v1/records/1", true, "delete"},
		{http.MethodPost, "/api/v1/score-configs/apache-ii/calculate", false, "score"},
	}
	for _, tt := range tests {
		if got := auditAction(tt.method, tt.path, tt.hasID); got != tt.want {
			t.Errorf("auditAction(%s, %s, %v) = %q, want %q", tt.method, tt.path, tt.hasID, got, tt.want)
		}
	}
}

func TestExtractResource(t *testing.T) {
	tests := map[string]string{
		"/api/v1/records":                  "records",
		"/api/v1/records/1":                "records",
		"/api/v1/patients/P001/records":    "patients",
		"/api/v1/score-configs/child-pugh": "score-configs",
		"/api/v1/":                         "unknown",
	}
	for path, want := range tests {
		if got := extractResource(path); got != want {
			t.Errorf("extractResource(%q) = %q, want %q", path, got, want)
		}
	}
}
