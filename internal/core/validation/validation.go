// Package validation rejects structurally invalid payloads before they
// reach authentication or storage. One schema pass per payload; every
// violated constraint is reported together so the client can fix the
// whole form at once.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error aggregates all violations from one schema pass.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok {
			return d.Time
		}
		return nil
	}, Date{})
	return v
}

// LoginInput is the credential pair presented at login. Password is
// optional because pending-registration patients authenticate with DNI
// alone.
type LoginInput struct {
	DNI      string `json:"dni" validate:"required,alphanum,min=8,max=18"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// BiochemistInput is the admin-gated professional registration payload.
type BiochemistInput struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	DNI       string `json:"dni" validate:"required,alphanum,min=8,max=18"`
	License   string `json:"license" validate:"required,alphanum,min=4"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// PatientInput is the patient backfill payload. Email and password are
// optional; a patient registered without them stays in the pending
// state until self-service registration.
type PatientInput struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	DNI       string `json:"dni" validate:"required,alphanum,min=8,max=18"`
	BirthDate Date   `json:"birthDate" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"omitempty,min=8"`
}

// StudyInput is the biochemist-supplied study creation payload. The
// pdf url is set by the upload layer before validation.
type StudyInput struct {
	DNI             string `json:"dni" validate:"required,alphanum,min=8,max=18"`
	StudyName       string `json:"studyName" validate:"required,min=2"`
	StudyDate       string `json:"studyDate" validate:"omitempty"`
	SocialInsurance string `json:"socialInsurance" validate:"omitempty"`
	Doctor          string `json:"doctor" validate:"omitempty"`
	PDFURL          string `json:"pdfUrl" validate:"omitempty"`
}

// StudyStatusInput carries a status transition by name.
type StudyStatusInput struct {
	StatusName string `json:"statusName" validate:"required"`
}

// AnalysisQuery is the patient-side analysis lookup filter.
type AnalysisQuery struct {
	ID *int64 `json:"id" validate:"omitempty,gt=0"`
}

// Check runs one schema pass over the payload and returns every
// violation, or nil when the payload is structurally valid.
func Check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "alphanum":
		return "must contain only letters and digits"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return "is invalid"
}
