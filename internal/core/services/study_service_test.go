package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/mocks"
)

func seedPatient(repo *mocks.MockUserRepository, dni string) *domain.User {
	user := &domain.User{
		DNI:     dni,
		Email:   dni + domain.PendingEmailSuffix,
		RoleID:  3,
		Role:    domain.RolePatient,
		Account: domain.PendingAccount{},
	}
	repo.SeedUser(user)
	return user
}

func TestStudyService_Create(t *testing.T) {
	biochemist := domain.Principal{UserID: 20, Role: domain.RoleBiochemist}

	t.Run("assigns_uploader_and_starts_in_progress", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		studyRepo := mocks.NewMockStudyRepository()
		patient := seedPatient(userRepo, "34567890")
		service := NewStudyService(studyRepo, userRepo)

		date := "2026-03-15"
		study, err := service.Create(context.Background(), biochemist, ports.CreateStudyInput{
			PatientDNI: "34567890",
			StudyName:  "Hemogram",
			StudyDate:  &date,
		})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if study.UserID != patient.ID {
			t.Errorf("study.UserID = %d, want %d", study.UserID, patient.ID)
		}
		if study.BiochemistID == nil || *study.BiochemistID != biochemist.UserID {
			t.Errorf("study.BiochemistID = %v, want %d", study.BiochemistID, biochemist.UserID)
		}
		if study.Status != domain.StudyInProgress {
			t.Errorf("study.Status = %s, want %s", study.Status, domain.StudyInProgress)
		}
		want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		if study.Date == nil || !study.Date.Equal(want) {
			t.Errorf("study.Date = %v, want %v", study.Date, want)
		}
	})

	t.Run("enqueues_study_created_event", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		studyRepo := mocks.NewMockStudyRepository()
		patient := seedPatient(userRepo, "34567890")
		service := NewStudyService(studyRepo, userRepo)

		_, err := service.Create(context.Background(), biochemist, ports.CreateStudyInput{
			PatientDNI: "34567890",
			StudyName:  "Hemogram",
		})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if len(studyRepo.CreatePayloads) != 1 {
			t.Fatalf("outbox payloads = %d, want 1", len(studyRepo.CreatePayloads))
		}

		var evt ports.StudyCreatedEvent
		if err := json.Unmarshal(studyRepo.CreatePayloads[0], &evt); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if evt.PatientID != patient.ID || evt.BiochemistID != biochemist.UserID {
			t.Errorf("event = %+v, want patient %d and biochemist %d", evt, patient.ID, biochemist.UserID)
		}
	})

	t.Run("unknown_patient_dni", func(t *testing.T) {
		service := NewStudyService(mocks.NewMockStudyRepository(), mocks.NewMockUserRepository())

		_, err := service.Create(context.Background(), biochemist, ports.CreateStudyInput{
			PatientDNI: "00000000",
			StudyName:  "Hemogram",
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrNotFound)
		}
	})

	t.Run("unparseable_date_rejected", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		seedPatient(userRepo, "34567890")
		service := NewStudyService(mocks.NewMockStudyRepository(), userRepo)

		bad := "15/03/2026"
		_, err := service.Create(context.Background(), biochemist, ports.CreateStudyInput{
			PatientDNI: "34567890",
			StudyName:  "Hemogram",
			StudyDate:  &bad,
		})
		if err == nil {
			t.Error("expected an error for an unparseable date")
		}
	})
}

func TestStudyService_ListByPatient(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	studyRepo := mocks.NewMockStudyRepository()
	for i := 0; i < 25; i++ {
		studyRepo.SeedStudy(&domain.Study{UserID: 10, Name: "Study", Status: domain.StudyCompleted})
	}
	studyRepo.SeedStudy(&domain.Study{UserID: 11, Name: "Other patient", Status: domain.StudyCompleted})
	service := NewStudyService(studyRepo, userRepo)

	tests := []struct {
		name           string
		page, limit    int
		wantPage       int
		wantLimit      int
		wantItems      int
		wantTotalPages int
	}{
		{name: "first_page", page: 1, limit: 10, wantPage: 1, wantLimit: 10, wantItems: 10, wantTotalPages: 3},
		{name: "last_partial_page", page: 3, limit: 10, wantPage: 3, wantLimit: 10, wantItems: 5, wantTotalPages: 3},
		{name: "page_past_the_end", page: 9, limit: 10, wantPage: 9, wantLimit: 10, wantItems: 0, wantTotalPages: 3},
		{name: "defaults_applied", page: 0, limit: 0, wantPage: 1, wantLimit: 10, wantItems: 10, wantTotalPages: 3},
		{name: "limit_clamped", page: 1, limit: 1000, wantPage: 1, wantLimit: 100, wantItems: 25, wantTotalPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := service.ListByPatient(context.Background(), 10, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("ListByPatient() error: %v", err)
			}
			if page.Page != tt.wantPage || page.Limit != tt.wantLimit {
				t.Errorf("page/limit = %d/%d, want %d/%d", page.Page, page.Limit, tt.wantPage, tt.wantLimit)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.Total != 25 {
				t.Errorf("total = %d, want 25", page.Total)
			}
			if page.TotalPages != tt.wantTotalPages {
				t.Errorf("totalPages = %d, want %d", page.TotalPages, tt.wantTotalPages)
			}
		})
	}
}

func TestStudyService_UpdateStatus(t *testing.T) {
	studyRepo := mocks.NewMockStudyRepository()
	biochemistID := int64(20)
	studyRepo.SeedStudy(&domain.Study{ID: 7, UserID: 10, BiochemistID: &biochemistID, Status: domain.StudyInProgress})
	service := NewStudyService(studyRepo, mocks.NewMockUserRepository())

	study, err := service.UpdateStatus(context.Background(), 7, domain.StudyCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if study.Status != domain.StudyCompleted {
		t.Errorf("status = %s, want %s", study.Status, domain.StudyCompleted)
	}

	if _, err := service.UpdateStatus(context.Background(), 404, domain.StudyCompleted); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want %v", err, domain.ErrNotFound)
	}
}
