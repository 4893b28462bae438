package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type StudyService struct {
	studyRepo ports.StudyRepository
	userRepo  ports.UserRepository
}

var _ ports.StudyService = (*StudyService)(nil)

func NewStudyService(studyRepo ports.StudyRepository, userRepo ports.UserRepository) *StudyService {
	return &StudyService{
		studyRepo: studyRepo,
		userRepo:  userRepo,
	}
}

// Create registers a new study for the patient behind the DNI and
// assigns it to the uploading biochemist. The study starts in
// IN_PROGRESS and a study.created event is enqueued in the same
// transaction.
func (s *StudyService) Create(ctx context.Context, principal domain.Principal, in ports.CreateStudyInput) (*domain.Study, error) {
	patient, err := s.userRepo.FindByDNI(ctx, in.PatientDNI)
	if err != nil {
		return nil, err
	}

	var studyDate *time.Time
	if in.StudyDate != nil && *in.StudyDate != "" {
		parsed, err := parseStudyDate(*in.StudyDate)
		if err != nil {
			return nil, err
		}
		studyDate = &parsed
	}

	biochemistID := principal.UserID
	study := domain.Study{
		UserID:          patient.ID,
		BiochemistID:    &biochemistID,
		Name:            in.StudyName,
		Date:            studyDate,
		SocialInsurance: in.SocialInsurance,
		Doctor:          in.Doctor,
		Status:          domain.StudyInProgress,
		PDFURL:          in.PDFURL,
		CreatedAt:       time.Now(),
	}

	payload, err := json.Marshal(ports.StudyCreatedEvent{
		PatientID:    patient.ID,
		BiochemistID: biochemistID,
		StudyName:    study.Name,
	})
	if err != nil {
		return nil, err
	}

	id, err := s.studyRepo.Create(ctx, study, payload)
	if err != nil {
		return nil, err
	}
	return s.studyRepo.FindByID(ctx, id)
}

func (s *StudyService) Get(ctx context.Context, id int64) (*domain.Study, error) {
	return s.studyRepo.FindByID(ctx, id)
}

func (s *StudyService) ListAll(ctx context.Context) ([]domain.Study, error) {
	return s.studyRepo.ListAll(ctx)
}

func (s *StudyService) ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error) {
	return s.studyRepo.ListByBiochemist(ctx, biochemistID)
}

func (s *StudyService) ListByPatient(ctx context.Context, patientID int64, page, limit int) (ports.StudyPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := s.studyRepo.ListByPatient(ctx, patientID, limit, (page-1)*limit)
	if err != nil {
		return ports.StudyPage{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return ports.StudyPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *StudyService) UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error) {
	return s.studyRepo.UpdateStatus(ctx, id, status)
}

func (s *StudyService) Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error) {
	return s.studyRepo.Update(ctx, id, fields)
}

func parseStudyDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
