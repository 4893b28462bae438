package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
	"github.com/labmanager/identity-access-service/internal/observability"
)

type AuthHandler struct {
	authService     ports.AuthService
	recoveryService ports.RecoveryService
	metrics         *observability.Metrics
	logger          *slog.Logger
}

func NewAuthHandler(
	auth ports.AuthService,
	recovery ports.RecoveryService,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:     auth,
		recoveryService: recovery,
		metrics:         metrics,
		logger:          logger,
	}
}

type loginData struct {
	User  loginUser `json:"user"`
	Token string    `json:"token"`
}

type loginUser struct {
	ID   int64  `json:"id"`
	DNI  string `json:"dni"`
	Role string `json:"role"`
}

// Login handles POST /auth/login. Unknown DNI responds 404 with a
// re-enter hint; a credential mismatch responds 401 with a message
// that stays generic on purpose.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Check(in); err != nil {
		h.metrics.LoginAttempts.WithLabelValues("invalid_payload").Inc()
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}

	token, user, err := h.authService.Login(r.Context(), in.DNI, in.Password)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.metrics.LoginAttempts.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, "user not found, re-enter DNI")
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	case err != nil:
		h.logger.Error("login failed", slog.Any("error", err))
		h.metrics.LoginAttempts.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "login successful",
		Data: loginData{
			User: loginUser{
				ID:   user.ID,
				DNI:  user.DNI,
				Role: string(user.Role),
			},
			Token: token,
		},
	})
}

type recoveryRequest struct {
	Email string `json:"email"`
}

// RequestPasswordRecovery handles POST /auth/request-password-recovery.
// The response is the same whether or not the email exists.
func (h *AuthHandler) RequestPasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.recoveryService.Request(r.Context(), req.Email); err != nil {
		h.logger.Error("recovery request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not process the request")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "if the email is registered, a recovery link has been sent",
	})
}

type resetRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		writeError(w, http.StatusBadRequest, "token, password and confirmation are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	err := h.recoveryService.Reset(r.Context(), req.Token, req.NewPassword)
	switch {
	case errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrMalformedToken),
		errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid or expired recovery token")
		return
	case err != nil:
		h.logger.Error("password reset failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not reset the password")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "password updated successfully",
	})
}
