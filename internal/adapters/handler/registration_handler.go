package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
)

type RegistrationHandler struct {
	registrationService ports.RegistrationService
	authService         ports.AuthService
	logger              *slog.Logger
}

func NewRegistrationHandler(
	registration ports.RegistrationService,
	auth ports.AuthService,
	logger *slog.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registration,
		authService:         auth,
		logger:              logger,
	}
}

type registeredData struct {
	ID      int64       `json:"id"`
	DNI     string      `json:"dni"`
	Email   string      `json:"email,omitempty"`
	Role    string      `json:"role"`
	Profile profileData `json:"profile"`
	Token   string      `json:"token,omitempty"`
}

type profileData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RegisterBiochemist handles POST /auth/register-biochemist. The new
// professional gets a session token right away.
func (h *RegistrationHandler) RegisterBiochemist(w http.ResponseWriter, r *http.Request) {
	var in validation.BiochemistInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Check(in); err != nil {
		h.respondInvalid(w, err)
		return
	}

	user, err := h.registrationService.RegisterBiochemist(r.Context(), in)
	if err != nil {
		h.respondRegistrationError(w, err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		h.logger.Error("token issue after registration failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "biochemist registered successfully",
		Data: registeredData{
			ID:    user.ID,
			DNI:   user.DNI,
			Email: user.Email,
			Role:  string(user.Role),
			Profile: profileData{
				FirstName: in.FirstName,
				LastName:  in.LastName,
			},
			Token: token,
		},
	})
}

// RegisterPatient handles POST /auth/register-patient. Email and
// password are optional; without them the account stays pending and
// the patient can log in with DNI alone.
func (h *RegistrationHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var in validation.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Check(in); err != nil {
		h.respondInvalid(w, err)
		return
	}

	user, err := h.registrationService.RegisterPatient(r.Context(), in)
	if err != nil {
		h.respondRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "patient registered successfully",
		Data: registeredData{
			ID:   user.ID,
			DNI:  user.DNI,
			Role: string(user.Role),
			Profile: profileData{
				FirstName: in.FirstName,
				LastName:  in.LastName,
			},
		},
	})
}

func (h *RegistrationHandler) respondInvalid(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeValidationError(w, verr)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid input")
}

func (h *RegistrationHandler) respondRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateDNI):
		writeError(w, http.StatusConflict, "DNI already registered")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		h.logger.Error("registration failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "registration failed")
	}
}
