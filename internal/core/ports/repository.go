package ports

import (
	"context"
	"time"

	"github.com/labmanager/identity-access-service/internal/core/domain"
)

type UserRepository interface {
	FindByDNI(ctx context.Context, dni string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// CreateBiochemist inserts the user row and its profile in one
	// transaction and returns the new user id.
	CreateBiochemist(ctx context.Context, user domain.User, profile domain.Profile) (int64, error)
	// CreatePatient additionally enqueues the outbox payload in the
	// same transaction so the relay picks it up.
	CreatePatient(ctx context.Context, user domain.User, profile domain.Profile, outboxPayload []byte) (int64, error)
	// SetPassword stores a new password hash, promoting a pending
	// account to registered.
	SetPassword(ctx context.Context, userID int64, passwordHash string) error
}

type StudyRepository interface {
	// Create inserts the study and its outbox payload in one
	// transaction and returns the new study id.
	Create(ctx context.Context, study domain.Study, outboxPayload []byte) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Study, error)
	ListAll(ctx context.Context) ([]domain.Study, error)
	ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error)
	// ListByPatient returns one page of the patient's studies plus the
	// total count.
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Study, int, error)
	UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error)
	Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error)
}

// OutboxRepository enqueues an event for the relay outside of a
// repository-owned transaction.
type OutboxRepository interface {
	Enqueue(ctx context.Context, eventType string, payload []byte) error
}

// RecoveryTokenStore tracks single-use password recovery tokens.
type RecoveryTokenStore interface {
	Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error
	// Consume returns the user id bound to the token and deletes it so
	// the token cannot be replayed. domain.ErrInvalidToken when absent.
	Consume(ctx context.Context, tokenID string) (int64, error)
}
