package validation

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *Error
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestCheckLoginInput(t *testing.T) {
	tests := []struct {
		name      string
		input     LoginInput
		badFields []string
	}{
		{
			name:  "valid_with_password",
			input: LoginInput{DNI: "12345678", Password: "abcdefgh"},
		},
		{
			name:  "valid_without_password",
			input: LoginInput{DNI: "12345678"},
		},
		{
			name:      "dni_too_short",
			input:     LoginInput{DNI: "1234567"},
			badFields: []string{"dni"},
		},
		{
			name:      "dni_with_separator",
			input:     LoginInput{DNI: "1234-5678"},
			badFields: []string{"dni"},
		},
		{
			name:      "dni_too_long",
			input:     LoginInput{DNI: "1234567890123456789"},
			badFields: []string{"dni"},
		},
		{
			name:      "password_too_short",
			input:     LoginInput{DNI: "12345678", Password: "short"},
			badFields: []string{"password"},
		},
		{
			name:      "both_invalid_reported_together",
			input:     LoginInput{DNI: "", Password: "short"},
			badFields: []string{"dni", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.input)
			if len(tt.badFields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.badFields, fieldNames(t, err))
		})
	}
}

func TestCheckBiochemistInput(t *testing.T) {
	valid := BiochemistInput{
		FirstName: "Ana",
		LastName:  "Diaz",
		DNI:       "23456789",
		License:   "BQ01",
		Email:     "a@b.com",
		Password:  "abcdefgh",
	}

	t.Run("valid_payload", func(t *testing.T) {
		assert.NoError(t, Check(valid))
	})

	t.Run("missing_license", func(t *testing.T) {
		in := valid
		in.License = ""
		assert.Contains(t, fieldNames(t, Check(in)), "license")
	})

	t.Run("license_too_short", func(t *testing.T) {
		in := valid
		in.License = "BQ"
		assert.Contains(t, fieldNames(t, Check(in)), "license")
	})

	t.Run("invalid_email", func(t *testing.T) {
		in := valid
		in.Email = "not-an-email"
		assert.Contains(t, fieldNames(t, Check(in)), "email")
	})

	t.Run("single_letter_name", func(t *testing.T) {
		in := valid
		in.FirstName = "A"
		assert.Contains(t, fieldNames(t, Check(in)), "firstName")
	})
}

func TestCheckPatientInput(t *testing.T) {
	valid := PatientInput{
		FirstName: "Juan",
		LastName:  "Perez",
		DNI:       "34567890",
		BirthDate: Date{Time: time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC)},
	}

	t.Run("valid_without_credentials", func(t *testing.T) {
		assert.NoError(t, Check(valid))
	})

	t.Run("valid_with_credentials", func(t *testing.T) {
		in := valid
		in.Email = "juan@example.com"
		in.Password = "abcdefgh"
		assert.NoError(t, Check(in))
	})

	t.Run("missing_birth_date", func(t *testing.T) {
		in := valid
		in.BirthDate = Date{}
		assert.Contains(t, fieldNames(t, Check(in)), "birthDate")
	})

	t.Run("password_without_minimum_length", func(t *testing.T) {
		in := valid
		in.Password = "short"
		assert.Contains(t, fieldNames(t, Check(in)), "password")
	})
}

func TestCheckStudyInput(t *testing.T) {
	t.Run("valid_minimal", func(t *testing.T) {
		assert.NoError(t, Check(StudyInput{DNI: "34567890", StudyName: "Hemogram"}))
	})

	t.Run("missing_study_name", func(t *testing.T) {
		err := Check(StudyInput{DNI: "34567890"})
		assert.Contains(t, fieldNames(t, err), "studyName")
	})
}

func TestCheckAnalysisQuery(t *testing.T) {
	id := int64(3)
	zero := int64(0)

	assert.NoError(t, Check(AnalysisQuery{}))
	assert.NoError(t, Check(AnalysisQuery{ID: &id}))

	err := Check(AnalysisQuery{ID: &zero})
	assert.Contains(t, fieldNames(t, err), "id")
}

func TestDateUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "calendar_date",
			raw:  `"1990-05-12"`,
			want: time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc3339_timestamp",
			raw:  `"1990-05-12T10:30:00Z"`,
			want: time.Date(1990, 5, 12, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "null_is_zero",
			raw:  `null`,
			want: time.Time{},
		},
		{
			name:    "garbage_rejected",
			raw:     `"12/05/1990"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.raw), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, d.Time.Equal(tt.want), "got %v want %v", d.Time, tt.want)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Check(LoginInput{})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), "dni is required")
}
