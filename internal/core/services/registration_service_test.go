package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
	"github.com/labmanager/identity-access-service/internal/mocks"
)

var testRoleIDs = map[domain.Role]int64{
	domain.RoleAdmin:      1,
	domain.RoleBiochemist: 2,
	domain.RolePatient:    3,
}

func validBiochemistInput() validation.BiochemistInput {
	return validation.BiochemistInput{
		FirstName: "Ana",
		LastName:  "Diaz",
		DNI:       "23456789",
		License:   "BQ01",
		Email:     "a@b.com",
		Password:  "abcdefgh",
	}
}

func validPatientInput() validation.PatientInput {
	return validation.PatientInput{
		FirstName: "Juan",
		LastName:  "Perez",
		DNI:       "34567890",
		BirthDate: validation.Date{Time: time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC)},
	}
}

func TestRegistrationService_RegisterBiochemist(t *testing.T) {
	t.Run("successful_registration", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		service := NewRegistrationService(repo, testRoleIDs)

		user, err := service.RegisterBiochemist(context.Background(), validBiochemistInput())
		if err != nil {
			t.Fatalf("RegisterBiochemist() error: %v", err)
		}
		if user.ID == 0 {
			t.Error("expected a non-zero user id")
		}
		if user.Role != domain.RoleBiochemist {
			t.Errorf("role = %s, want %s", user.Role, domain.RoleBiochemist)
		}
		if user.RoleID != testRoleIDs[domain.RoleBiochemist] {
			t.Errorf("roleID = %d, want %d", user.RoleID, testRoleIDs[domain.RoleBiochemist])
		}

		acct, ok := user.Account.(domain.RegisteredAccount)
		if !ok {
			t.Fatalf("account = %T, want RegisteredAccount", user.Account)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("abcdefgh")); err != nil {
			t.Errorf("stored hash does not match the password: %v", err)
		}
		if len(repo.CreateBiochemistCalls) != 1 {
			t.Errorf("CreateBiochemist calls = %d, want 1", len(repo.CreateBiochemistCalls))
		}
	})

	t.Run("duplicate_dni_rejected", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		repo.SeedUser(&domain.User{DNI: "23456789", Email: "other@b.com"})
		service := NewRegistrationService(repo, testRoleIDs)

		_, err := service.RegisterBiochemist(context.Background(), validBiochemistInput())
		if !errors.Is(err, domain.ErrDuplicateDNI) {
			t.Errorf("error = %v, want %v", err, domain.ErrDuplicateDNI)
		}
	})

	t.Run("duplicate_email_rejected", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		repo.SeedUser(&domain.User{DNI: "99999999", Email: "a@b.com"})
		service := NewRegistrationService(repo, testRoleIDs)

		_, err := service.RegisterBiochemist(context.Background(), validBiochemistInput())
		if !errors.Is(err, domain.ErrDuplicateEmail) {
			t.Errorf("error = %v, want %v", err, domain.ErrDuplicateEmail)
		}
	})

	t.Run("repository_error_propagates", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		repo.CreateBiochemistError = context.DeadlineExceeded
		service := NewRegistrationService(repo, testRoleIDs)

		_, err := service.RegisterBiochemist(context.Background(), validBiochemistInput())
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want %v", err, context.DeadlineExceeded)
		}
	})
}

func TestRegistrationService_RegisterPatient(t *testing.T) {
	t.Run("backfill_without_credentials_stays_pending", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		service := NewRegistrationService(repo, testRoleIDs)

		user, err := service.RegisterPatient(context.Background(), validPatientInput())
		if err != nil {
			t.Fatalf("RegisterPatient() error: %v", err)
		}
		if _, ok := user.Account.(domain.PendingAccount); !ok {
			t.Errorf("account = %T, want PendingAccount", user.Account)
		}
		if !strings.HasSuffix(user.Email, domain.PendingEmailSuffix) {
			t.Errorf("email = %s, want the pending sentinel suffix", user.Email)
		}
		if !user.Pending() {
			t.Error("user should report pending")
		}
	})

	t.Run("registration_with_credentials_is_registered", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		service := NewRegistrationService(repo, testRoleIDs)

		in := validPatientInput()
		in.Email = "juan@example.com"
		in.Password = "abcdefgh"
		user, err := service.RegisterPatient(context.Background(), in)
		if err != nil {
			t.Fatalf("RegisterPatient() error: %v", err)
		}
		if _, ok := user.Account.(domain.RegisteredAccount); !ok {
			t.Errorf("account = %T, want RegisteredAccount", user.Account)
		}
		if user.Email != "juan@example.com" {
			t.Errorf("email = %s, want juan@example.com", user.Email)
		}
		if user.Pending() {
			t.Error("user should not report pending")
		}
	})

	t.Run("outbox_payload_carries_the_registration_event", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		service := NewRegistrationService(repo, testRoleIDs)

		if _, err := service.RegisterPatient(context.Background(), validPatientInput()); err != nil {
			t.Fatalf("RegisterPatient() error: %v", err)
		}
		if len(repo.PatientPayloads) != 1 {
			t.Fatalf("outbox payloads = %d, want 1", len(repo.PatientPayloads))
		}

		var evt ports.PatientRegisteredEvent
		if err := json.Unmarshal(repo.PatientPayloads[0], &evt); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if evt.DNI != "34567890" || evt.LastName != "Perez" {
			t.Errorf("event = %+v, want DNI 34567890 and last name Perez", evt)
		}
	})

	t.Run("duplicate_dni_rejected", func(t *testing.T) {
		repo := mocks.NewMockUserRepository()
		repo.SeedUser(&domain.User{DNI: "34567890", Email: "x@y.com"})
		service := NewRegistrationService(repo, testRoleIDs)

		_, err := service.RegisterPatient(context.Background(), validPatientInput())
		if !errors.Is(err, domain.ErrDuplicateDNI) {
			t.Errorf("error = %v, want %v", err, domain.ErrDuplicateDNI)
		}
	})
}
