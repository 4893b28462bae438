package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labmanager/identity-access-service/internal/adapters/middleware"
	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
	"github.com/labmanager/identity-access-service/internal/observability"
)

type StudyHandler struct {
	studyService ports.StudyService
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func NewStudyHandler(studies ports.StudyService, metrics *observability.Metrics, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{
		studyService: studies,
		metrics:      metrics,
		logger:       logger,
	}
}

// Create handles POST /studies. Route-gated to biochemists; the
// uploader becomes the assigned biochemist.
func (h *StudyHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var in validation.StudyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Check(in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}

	var studyDate *string
	if in.StudyDate != "" {
		studyDate = &in.StudyDate
	}
	study, err := h.studyService.Create(r.Context(), principal, ports.CreateStudyInput{
		PatientDNI:      in.DNI,
		StudyName:       in.StudyName,
		StudyDate:       studyDate,
		SocialInsurance: in.SocialInsurance,
		Doctor:          in.Doctor,
		PDFURL:          in.PDFURL,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "patient with the given DNI not found")
		return
	case err != nil:
		h.logger.Error("create study failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not create the study")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "study created successfully",
		Data:    study,
	})
}

// GetByID handles GET /studies/{id}. A missing study responds 404 and
// a denied one 403, preserving the upstream API contract even though
// the split lets a caller distinguish "absent" from "forbidden".
func (h *StudyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	study, err := h.studyService.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "study not found")
		return
	case err != nil:
		h.logger.Error("get study failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load the study")
		return
	}

	allowed := domain.CanViewStudy(principal, *study)
	h.metrics.Decision("view", allowed)
	if !allowed {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "study retrieved successfully",
		Data:    study,
	})
}

// ListAll handles GET /studies/all. Route-gated to admins.
func (h *StudyHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	studies, err := h.studyService.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list studies failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not list studies")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "studies retrieved successfully",
		Data:    studies,
	})
}

// ListMine handles GET /studies/biochemist/me. Route-gated to
// biochemists.
func (h *StudyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	studies, err := h.studyService.ListByBiochemist(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error("list assigned studies failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not list studies")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "studies retrieved successfully",
		Data:    studies,
	})
}

// ListMineAsPatient handles GET /studies/patient/me with page/limit
// query parameters. Route-gated to patients.
func (h *StudyHandler) ListMineAsPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.studyService.ListByPatient(r.Context(), principal.UserID, page, limit)
	if err != nil {
		h.logger.Error("list patient studies failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not list studies")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "studies retrieved successfully",
		Data:    result,
	})
}

// UpdateStatus handles PATCH /studies/{id}/status. The admin bypass
// and the assigned-biochemist rule both come from CanUpdateStudy.
func (h *StudyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	var in validation.StudyStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := domain.ParseStudyStatus(in.StatusName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown study status")
		return
	}

	if study := h.loadForUpdate(w, r, principal, id); study == nil {
		return
	}

	updated, err := h.studyService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.logger.Error("update study status failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not update the study")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "study updated successfully",
		Data:    updated,
	})
}

// Update handles PATCH /studies/{id} for the editable study fields.
func (h *StudyHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return
	}

	var req struct {
		SocialInsurance *string `json:"socialInsurance"`
		StudyDate       *string `json:"studyDate"`
		Doctor          *string `json:"doctor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := domain.StudyUpdate{
		SocialInsurance: req.SocialInsurance,
		Doctor:          req.Doctor,
	}
	if req.StudyDate != nil {
		parsed, err := parseDate(*req.StudyDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid study date")
			return
		}
		fields.Date = &parsed
	}
	if fields.Empty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if study := h.loadForUpdate(w, r, principal, id); study == nil {
		return
	}

	updated, err := h.studyService.Update(r.Context(), id, fields)
	if err != nil {
		h.logger.Error("update study failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not update the study")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "study updated successfully",
		Data:    updated,
	})
}

// loadForUpdate loads the study and applies the update permission
// check, writing the response itself on failure. Returns nil when the
// caller should stop.
func (h *StudyHandler) loadForUpdate(w http.ResponseWriter, r *http.Request, principal domain.Principal, id int64) *domain.Study {
	study, err := h.studyService.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "study not found")
		return nil
	case err != nil:
		h.logger.Error("get study failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load the study")
		return nil
	}

	allowed := domain.CanUpdateStudy(principal, *study)
	h.metrics.Decision("update", allowed)
	if !allowed {
		writeError(w, http.StatusForbidden, "access denied")
		return nil
	}
	return study
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
