package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labmanager/identity-access-service/internal/core/validation"
)

// envelope is the response shape shared with the frontend.
type envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeValidationError reports every violated constraint from the
// schema pass.
func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "invalid input",
		Errors:  verr.Fields,
	})
}
