package domain

import (
	"fmt"
	"time"
)

type StudyStatus string

const (
	StudyPending    StudyStatus = "PENDING"
	StudyInProgress StudyStatus = "IN_PROGRESS"
	StudyCompleted  StudyStatus = "COMPLETED"
)

func ParseStudyStatus(name string) (StudyStatus, error) {
	switch StudyStatus(name) {
	case StudyPending, StudyInProgress, StudyCompleted:
		return StudyStatus(name), nil
	}
	return "", fmt.Errorf("unknown study status %q", name)
}

// Study is a laboratory study record. Permission checks read only
// UserID and BiochemistID; everything else is payload.
type Study struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	BiochemistID    *int64      `json:"biochemist_id,omitempty"`
	Name            string      `json:"study_name"`
	Date            *time.Time  `json:"study_date,omitempty"`
	SocialInsurance string      `json:"social_insurance,omitempty"`
	Doctor          string      `json:"doctor,omitempty"`
	Status          StudyStatus `json:"status"`
	PDFURL          string      `json:"pdf_url,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// StudyUpdate carries the optional editable fields of a study. Nil
// means "leave unchanged".
type StudyUpdate struct {
	SocialInsurance *string
	Date            *time.Time
	Doctor          *string
}

// Empty reports whether the update would change nothing.
func (u StudyUpdate) Empty() bool {
	return u.SocialInsurance == nil && u.Date == nil && u.Doctor == nil
}
