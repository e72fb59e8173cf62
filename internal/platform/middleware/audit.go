package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
)

// AuditEntry describes one access to patient scoring data.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	ResourceID string
	PatientID  string
	Action     string // read, search, create, update, delete, score
	IPAddress  string
	UserAgent  string
	Method     string
	Path       string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit emits one "phi_access" log line per request under /api/v1/. It must
// be registered with Use so route params are populated.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isAuditablePath(c.Request().URL.Path) {
				return next(c)
			}

			err := next(c)

			entry := buildAuditEntry(c, err)
			evt := logger.Info()
			if entry.StatusCode >= 400 {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Str("user_agent", entry.UserAgent).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

func buildAuditEntry(c echo.Context, err error) AuditEntry {
	req := c.Request()
	entry := AuditEntry{
		UserID:     auth.UserIDFromContext(req.Context()),
		UserRoles:  auth.RolesFromContext(req.Context()),
		Resource:   extractResource(req.URL.Path),
		ResourceID: c.Param("id"),
		PatientID:  extractPatientID(c),
		IPAddress:  c.RealIP(),
		UserAgent:  req.UserAgent(),
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: c.Response().Status,
		Timestamp:  time.Now().UTC(),
	}
	entry.RequestID, _ = c.Get("request_id").(string)
	entry.Action = auditAction(req.Method, req.URL.Path, entry.ResourceID != "")

	if he, ok := err.(*echo.HTTPError); ok {
		entry.StatusCode = he.Code
	} else if err != nil && !c.Response().Committed {
		entry.StatusCode = http.StatusInternalServerError
	}
	return entry
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

func auditAction(method, path string, hasID bool) string {
	if strings.HasSuffix(path, "/calculate") {
		return "score"
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	if hasID {
		return "read"
	}
	return "search"
}

// extractResource returns the first segment after /api/v1/.
func extractResource(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if seg, _, _ := strings.Cut(rest, "/"); seg != "" {
		return seg
	}
	return "unknown"
}

// extractPatientID looks at the :patientId route param, then the
// patient_id query parameter.
func extractPatientID(c echo.Context) string {
	if id := c.Param("patientId"); id != "" {
		return id
	}
	return c.QueryParam("patient_id")
}
