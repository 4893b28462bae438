package ports

import (
	"context"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/validation"
)

type AuthService interface {
	// Login verifies the DNI (plus password, when the account has one)
	// and returns a signed session token with the authenticated user.
	Login(ctx context.Context, dni, password string) (string, *domain.User, error)
	// VerifyToken decodes and verifies a session token into a
	// principal.
	VerifyToken(token string) (domain.Principal, error)
	// IssueToken signs a fresh session token for the user.
	IssueToken(user *domain.User) (string, error)
}

type RegistrationService interface {
	RegisterBiochemist(ctx context.Context, in validation.BiochemistInput) (*domain.User, error)
	RegisterPatient(ctx context.Context, in validation.PatientInput) (*domain.User, error)
}

type StudyService interface {
	Create(ctx context.Context, principal domain.Principal, in CreateStudyInput) (*domain.Study, error)
	Get(ctx context.Context, id int64) (*domain.Study, error)
	ListAll(ctx context.Context) ([]domain.Study, error)
	ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error)
	ListByPatient(ctx context.Context, patientID int64, page, limit int) (StudyPage, error)
	UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error)
	Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error)
}

type RecoveryService interface {
	// Request issues a recovery token for the account behind the email
	// and enqueues the mail event. An unknown email is not an error;
	// the response must not reveal whether the address exists.
	Request(ctx context.Context, email string) error
	// Reset consumes a recovery token and stores the new password.
	Reset(ctx context.Context, token, newPassword string) error
}

// CreateStudyInput is the biochemist-supplied study payload. The
// uploading biochemist becomes the assignee.
type CreateStudyInput struct {
	PatientDNI      string
	StudyName       string
	StudyDate       *string
	SocialInsurance string
	Doctor          string
	PDFURL          string
}

// StudyPage is one page of a patient's study history.
type StudyPage struct {
	Items      []domain.Study `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}
