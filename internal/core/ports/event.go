package ports

import (
	"context"
)

// Outbox event types, also used as queue names by the relay.
const (
	EventPatientRegistered = "patient.registered"
	EventStudyCreated      = "study.created"
	EventRecoveryRequested = "recovery.requested"
)

type PatientRegisteredEvent struct {
	DNI      string `json:"dni"`
	LastName string `json:"last_name"`
}

type StudyCreatedEvent struct {
	PatientID    int64  `json:"patient_id"`
	BiochemistID int64  `json:"biochemist_id"`
	StudyName    string `json:"study_name"`
}

type RecoveryRequestedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type LabEventPublisher interface {
	PublishPatientRegistered(ctx context.Context, evt PatientRegisteredEvent) error
	PublishStudyCreated(ctx context.Context, evt StudyCreatedEvent) error
	PublishRecoveryRequested(ctx context.Context, evt RecoveryRequestedEvent) error
}
