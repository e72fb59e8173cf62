package record

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
	"github.com/LzzJustBeYou/MedScore/pkg/pagination"
	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.ClinicalRoles...)

	read := api.Group("", role)
	read.GET("/score-configs", h.ListConfigs)
	read.GET("/score-configs/:id", h.GetConfig)
	read.GET("/records", h.SearchRecords)
	read.GET("/records/:id", h.GetRecord)
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:patientId/records", h.PatientRecords)

	write := api.Group("", role)
	write.POST("/score-configs/:id/calculate", h.Calculate)
	write.POST("/records", h.CreateRecord)
	write.PUT("/records/:id", h.RescoreRecord)
	write.PATCH("/records/:id", h.PatchRecord)
	write.DELETE("/records/:id", h.DeleteRecord)
}

type calculateRequest struct {
	Data scoring.FormData `json:"data" validate:"required"`
}

type createRecordRequest struct {
	PatientName string           `json:"patient_name" validate:"required,notblank,max=100"`
	PatientID   string           `json:"patient_id" validate:"required,notblank,max=64"`
	ScoreConfig string           `json:"score_config" validate:"required"`
	Data        scoring.FormData `json:"data" validate:"required"`
}

type patchRecordRequest struct {
	PatientName *string `json:"patient_name" validate:"omitempty,notblank,max=100"`
	PatientID   *string `json:"patient_id" validate:"omitempty,notblank,max=64"`
}

type calculateResponse struct {
	ConfigID   string `json:"config_id"`
	ConfigName string `json:"config_name"`
	scoring.Result
}

type recordResponse struct {
	Record *ScoringRecord     `json:"record"`
	Score  *calculateResponse `json:"score,omitempty"`
}

func newCalculateResponse(out *Outcome) *calculateResponse {
	return &calculateResponse{ConfigID: out.Config.ID, ConfigName: out.Config.Name, Result: out.Result}
}

// -- Score configs --

func (h *Handler) ListConfigs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Configs())
}

func (h *Handler) GetConfig(c echo.Context) error {
	cfg, err := h.svc.Config(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Calculate(c echo.Context) error {
	var req calculateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.Score(c.Request().Context(), c.Param("id"), req.Data)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newCalculateResponse(out))
}

// -- Records --

func (h *Handler) CreateRecord(c echo.Context) error {
	var req createRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patient := Patient{Name: req.PatientName, ID: req.PatientID}
	rec, out, err := h.svc.CreateScored(c.Request().Context(), patient, req.ScoreConfig, req.Data)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, recordResponse{Record: rec, Score: newCalculateResponse(out)})
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) SearchRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchRecords(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, pg))
}

func (h *Handler) RescoreRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req calculateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, out, err := h.svc.Rescore(c.Request().Context(), id, req.Data)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recordResponse{Record: rec, Score: newCalculateResponse(out)})
}

func (h *Handler) PatchRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req patchRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch := RecordPatch{PatientName: trimmed(req.PatientName), PatientID: trimmed(req.PatientID)}
	rec, err := h.svc.UpdateRecord(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if patients == nil {
		patients = []*PatientSummary{}
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) PatientRecords(c echo.Context) error {
	items, err := h.svc.PatientRecords(c.Request().Context(), c.Param("patientId"), c.QueryParam("name"))
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*ScoringRecord{}
	}
	return c.JSON(http.StatusOK, items)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// httpError maps service errors to HTTP status codes.
func httpError(err error) error {
	var verr *scoring.ValidationError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, scoring.ErrConfigNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoFieldsToUpdate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMissingRequired):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": verr.Error(),
			"issues":  verr.Issues,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
