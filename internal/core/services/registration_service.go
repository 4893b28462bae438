package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
)

// bcryptCost matches the hashing policy of the rest of the platform.
const bcryptCost = 12

type RegistrationService struct {
	userRepo ports.UserRepository
	roleIDs  map[domain.Role]int64
}

var _ ports.RegistrationService = (*RegistrationService)(nil)

func NewRegistrationService(userRepo ports.UserRepository, roleIDs map[domain.Role]int64) *RegistrationService {
	return &RegistrationService{
		userRepo: userRepo,
		roleIDs:  roleIDs,
	}
}

// RegisterBiochemist creates a professional account with a hashed
// password. DNI and email must both be unused.
func (s *RegistrationService) RegisterBiochemist(ctx context.Context, in validation.BiochemistInput) (*domain.User, error) {
	if err := s.ensureUnused(ctx, in.DNI, in.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		DNI:       in.DNI,
		Email:     in.Email,
		License:   in.License,
		RoleID:    s.roleIDs[domain.RoleBiochemist],
		Role:      domain.RoleBiochemist,
		Account:   domain.RegisteredAccount{PasswordHash: string(hash)},
		CreatedAt: time.Now(),
	}
	profile := domain.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	id, err := s.userRepo.CreateBiochemist(ctx, user, profile)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

// RegisterPatient creates a patient account. Without an explicit
// password the account stays pending and carries the sentinel email so
// the state is visible in the identity store; the patient completes
// registration later using the DNI as bootstrap credential.
func (s *RegistrationService) RegisterPatient(ctx context.Context, in validation.PatientInput) (*domain.User, error) {
	if err := s.ensureUnused(ctx, in.DNI, in.Email); err != nil {
		return nil, err
	}

	var account domain.Account = domain.PendingAccount{}
	email := in.Email
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		account = domain.RegisteredAccount{PasswordHash: string(hash)}
	}
	if email == "" {
		email = in.DNI + domain.PendingEmailSuffix
	}

	birthDate := in.BirthDate.Time
	user := domain.User{
		DNI:       in.DNI,
		Email:     email,
		RoleID:    s.roleIDs[domain.RolePatient],
		Role:      domain.RolePatient,
		Account:   account,
		CreatedAt: time.Now(),
	}
	profile := domain.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: &birthDate,
	}

	payload, err := json.Marshal(ports.PatientRegisteredEvent{
		DNI:      user.DNI,
		LastName: profile.LastName,
	})
	if err != nil {
		return nil, err
	}

	id, err := s.userRepo.CreatePatient(ctx, user, profile, payload)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return &user, nil
}

func (s *RegistrationService) ensureUnused(ctx context.Context, dni, email string) error {
	if _, err := s.userRepo.FindByDNI(ctx, dni); err == nil {
		return domain.ErrDuplicateDNI
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if email == "" {
		return nil
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
