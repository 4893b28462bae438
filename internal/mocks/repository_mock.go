// Package mocks provides in-memory implementations of the port
// interfaces with call tracking and error injection for unit tests.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

// MockUserRepository implements ports.UserRepository backed by maps.
type MockUserRepository struct {
	mu sync.RWMutex

	usersByDNI   map[string]*domain.User
	usersByEmail map[string]*domain.User
	usersByID    map[int64]*domain.User
	nextID       int64

	// Call tracking
	FindByDNICalls        []string
	FindByEmailCalls      []string
	CreateBiochemistCalls []domain.User
	CreatePatientCalls    []domain.User
	PatientPayloads       [][]byte
	SetPasswordCalls      []int64

	// Error injection
	FindByDNIError        error
	FindByEmailError      error
	FindByIDError         error
	CreateBiochemistError error
	CreatePatientError    error
	SetPasswordError      error
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		usersByDNI:   make(map[string]*domain.User),
		usersByEmail: make(map[string]*domain.User),
		usersByID:    make(map[int64]*domain.User),
		nextID:       1,
	}
}

// SeedUser stores a user for lookup by DNI, email and id.
func (m *MockUserRepository) SeedUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	} else if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	m.usersByDNI[user.DNI] = user
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *MockUserRepository) FindByDNI(ctx context.Context, dni string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByDNICalls = append(m.FindByDNICalls, dni)
	if m.FindByDNIError != nil {
		return nil, m.FindByDNIError
	}
	user, ok := m.usersByDNI[dni]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	user, ok := m.usersByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) CreateBiochemist(ctx context.Context, user domain.User, profile domain.Profile) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateBiochemistCalls = append(m.CreateBiochemistCalls, user)
	if m.CreateBiochemistError != nil {
		return 0, m.CreateBiochemistError
	}
	user.ID = m.nextID
	m.nextID++
	stored := user
	m.usersByDNI[stored.DNI] = &stored
	m.usersByEmail[stored.Email] = &stored
	m.usersByID[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockUserRepository) CreatePatient(ctx context.Context, user domain.User, profile domain.Profile, outboxPayload []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatePatientCalls = append(m.CreatePatientCalls, user)
	m.PatientPayloads = append(m.PatientPayloads, outboxPayload)
	if m.CreatePatientError != nil {
		return 0, m.CreatePatientError
	}
	user.ID = m.nextID
	m.nextID++
	stored := user
	m.usersByDNI[stored.DNI] = &stored
	m.usersByEmail[stored.Email] = &stored
	m.usersByID[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockUserRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetPasswordCalls = append(m.SetPasswordCalls, userID)
	if m.SetPasswordError != nil {
		return m.SetPasswordError
	}
	user, ok := m.usersByID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.Account = domain.RegisteredAccount{PasswordHash: passwordHash}
	return nil
}

// MockStudyRepository implements ports.StudyRepository backed by a map.
type MockStudyRepository struct {
	mu sync.RWMutex

	studies map[int64]*domain.Study
	nextID  int64

	CreateCalls       []domain.Study
	CreatePayloads    [][]byte
	UpdateStatusCalls []domain.StudyStatus
	UpdateCalls       []domain.StudyUpdate

	CreateError       error
	FindByIDError     error
	ListError         error
	UpdateStatusError error
	UpdateError       error
}

var _ ports.StudyRepository = (*MockStudyRepository)(nil)

func NewMockStudyRepository() *MockStudyRepository {
	return &MockStudyRepository{
		studies: make(map[int64]*domain.Study),
		nextID:  1,
	}
}

func (m *MockStudyRepository) SeedStudy(study *domain.Study) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if study.ID == 0 {
		study.ID = m.nextID
		m.nextID++
	} else if study.ID >= m.nextID {
		m.nextID = study.ID + 1
	}
	m.studies[study.ID] = study
}

func (m *MockStudyRepository) Create(ctx context.Context, study domain.Study, outboxPayload []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, study)
	m.CreatePayloads = append(m.CreatePayloads, outboxPayload)
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	study.ID = m.nextID
	m.nextID++
	stored := study
	m.studies[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockStudyRepository) FindByID(ctx context.Context, id int64) (*domain.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	study, ok := m.studies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return study, nil
}

func (m *MockStudyRepository) ListAll(ctx context.Context) ([]domain.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.Study, 0, len(m.studies))
	for _, s := range m.studies {
		out = append(out, *s)
	}
	return out, nil
}

func (m *MockStudyRepository) ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []domain.Study
	for _, s := range m.studies {
		if s.BiochemistID != nil && *s.BiochemistID == biochemistID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockStudyRepository) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Study, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	var all []domain.Study
	for _, s := range m.studies {
		if s.UserID == patientID {
			all = append(all, *s)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockStudyRepository) UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, status)
	if m.UpdateStatusError != nil {
		return nil, m.UpdateStatusError
	}
	study, ok := m.studies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	study.Status = status
	return study, nil
}

func (m *MockStudyRepository) Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls = append(m.UpdateCalls, fields)
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	study, ok := m.studies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if fields.SocialInsurance != nil {
		study.SocialInsurance = *fields.SocialInsurance
	}
	if fields.Date != nil {
		study.Date = fields.Date
	}
	if fields.Doctor != nil {
		study.Doctor = *fields.Doctor
	}
	return study, nil
}

// MockOutboxRepository records enqueued events.
type MockOutboxRepository struct {
	mu sync.Mutex

	EnqueueCalls []string
	Payloads     [][]byte
	EnqueueError error
}

var _ ports.OutboxRepository = (*MockOutboxRepository)(nil)

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, eventType string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnqueueCalls = append(m.EnqueueCalls, eventType)
	m.Payloads = append(m.Payloads, payload)
	return m.EnqueueError
}

// MockRecoveryTokenStore implements ports.RecoveryTokenStore in memory.
type MockRecoveryTokenStore struct {
	mu sync.Mutex

	tokens map[string]int64

	SaveCalls    []string
	ConsumeCalls []string
	SaveError    error
	ConsumeError error
}

var _ ports.RecoveryTokenStore = (*MockRecoveryTokenStore)(nil)

func NewMockRecoveryTokenStore() *MockRecoveryTokenStore {
	return &MockRecoveryTokenStore{tokens: make(map[string]int64)}
}

func (m *MockRecoveryTokenStore) Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, tokenID)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.tokens[tokenID] = userID
	return nil
}

func (m *MockRecoveryTokenStore) Consume(ctx context.Context, tokenID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConsumeCalls = append(m.ConsumeCalls, tokenID)
	if m.ConsumeError != nil {
		return 0, m.ConsumeError
	}
	userID, ok := m.tokens[tokenID]
	if !ok {
		return 0, domain.ErrInvalidToken
	}
	delete(m.tokens, tokenID)
	return userID, nil
}
