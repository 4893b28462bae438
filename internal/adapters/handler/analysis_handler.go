package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labmanager/identity-access-service/internal/adapters/middleware"
	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/observability"
)

// AnalysisHandler serves the patient-facing analysis views of the
// study store. Route-gated to patients.
type AnalysisHandler struct {
	studyService ports.StudyService
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func NewAnalysisHandler(studies ports.StudyService, metrics *observability.Metrics, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		studyService: studies,
		metrics:      metrics,
		logger:       logger,
	}
}

// ListMine handles GET /patients/analysis.
func (h *AnalysisHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.studyService.ListByPatient(r.Context(), principal.UserID, 1, 100)
	if err != nil {
		h.logger.Error("list analyses failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load analyses")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "analyses retrieved successfully",
		Data:    result.Items,
	})
}

// GetByID handles GET /patients/analysis/{id}. The lookup is scoped to
// the authenticated patient, so a study owned by someone else responds
// 404 rather than 403; this endpoint does not reveal whether the
// record exists.
func (h *AnalysisHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	study, err := h.studyService.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	case err != nil:
		h.logger.Error("get analysis failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not load the analysis")
		return
	}

	allowed := domain.CanViewStudy(principal, *study)
	h.metrics.Decision("view", allowed)
	if !allowed {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "analysis retrieved successfully",
		Data:    study,
	})
}
