package mocks

import (
	"context"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/core/validation"
)

// MockAuthService stubs ports.AuthService with function fields so a
// handler test can script each call.
type MockAuthService struct {
	LoginFn       func(ctx context.Context, dni, password string) (string, *domain.User, error)
	VerifyTokenFn func(token string) (domain.Principal, error)
	IssueTokenFn  func(user *domain.User) (string, error)
}

var _ ports.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Login(ctx context.Context, dni, password string) (string, *domain.User, error) {
	return m.LoginFn(ctx, dni, password)
}

func (m *MockAuthService) VerifyToken(token string) (domain.Principal, error) {
	return m.VerifyTokenFn(token)
}

func (m *MockAuthService) IssueToken(user *domain.User) (string, error) {
	return m.IssueTokenFn(user)
}

// MockRegistrationService stubs ports.RegistrationService.
type MockRegistrationService struct {
	RegisterBiochemistFn func(ctx context.Context, in validation.BiochemistInput) (*domain.User, error)
	RegisterPatientFn    func(ctx context.Context, in validation.PatientInput) (*domain.User, error)
}

var _ ports.RegistrationService = (*MockRegistrationService)(nil)

func (m *MockRegistrationService) RegisterBiochemist(ctx context.Context, in validation.BiochemistInput) (*domain.User, error) {
	return m.RegisterBiochemistFn(ctx, in)
}

func (m *MockRegistrationService) RegisterPatient(ctx context.Context, in validation.PatientInput) (*domain.User, error) {
	return m.RegisterPatientFn(ctx, in)
}

// MockStudyService stubs ports.StudyService.
type MockStudyService struct {
	CreateFn           func(ctx context.Context, principal domain.Principal, in ports.CreateStudyInput) (*domain.Study, error)
	GetFn              func(ctx context.Context, id int64) (*domain.Study, error)
	ListAllFn          func(ctx context.Context) ([]domain.Study, error)
	ListByBiochemistFn func(ctx context.Context, biochemistID int64) ([]domain.Study, error)
	ListByPatientFn    func(ctx context.Context, patientID int64, page, limit int) (ports.StudyPage, error)
	UpdateStatusFn     func(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error)
	UpdateFn           func(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error)
}

var _ ports.StudyService = (*MockStudyService)(nil)

func (m *MockStudyService) Create(ctx context.Context, principal domain.Principal, in ports.CreateStudyInput) (*domain.Study, error) {
	return m.CreateFn(ctx, principal, in)
}

func (m *MockStudyService) Get(ctx context.Context, id int64) (*domain.Study, error) {
	return m.GetFn(ctx, id)
}

func (m *MockStudyService) ListAll(ctx context.Context) ([]domain.Study, error) {
	return m.ListAllFn(ctx)
}

func (m *MockStudyService) ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error) {
	return m.ListByBiochemistFn(ctx, biochemistID)
}

func (m *MockStudyService) ListByPatient(ctx context.Context, patientID int64, page, limit int) (ports.StudyPage, error) {
	return m.ListByPatientFn(ctx, patientID, page, limit)
}

func (m *MockStudyService) UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error) {
	return m.UpdateStatusFn(ctx, id, status)
}

func (m *MockStudyService) Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error) {
	return m.UpdateFn(ctx, id, fields)
}

// MockRecoveryService stubs ports.RecoveryService.
type MockRecoveryService struct {
	RequestFn func(ctx context.Context, email string) error
	ResetFn   func(ctx context.Context, token, newPassword string) error
}

var _ ports.RecoveryService = (*MockRecoveryService)(nil)

func (m *MockRecoveryService) Request(ctx context.Context, email string) error {
	return m.RequestFn(ctx, email)
}

func (m *MockRecoveryService) Reset(ctx context.Context, token, newPassword string) error {
	return m.ResetFn(ctx, token, newPassword)
}
