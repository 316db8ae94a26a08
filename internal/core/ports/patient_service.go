package ports

import (
	"context"
	"time"

	"github.com/pm/patient-system/internal/core/domain"
)

type CreatePatientInput struct {
	Name           string
	Email          string
	Address        string
	BirthDate      time.Time
	RegisteredDate time.Time
}

type UpdatePatientInput struct {
	Name           string
	Email          string
	Address        string
	BirthDate      time.Time
	RegisteredDate *time.Time
}

// CreatePatientResult reports the committed patient together with the outcome
// of the post-commit side effects. A false flag marks a record that billing or
// analytics will not know about until reconciled.
type CreatePatientResult struct {
	Patient            *domain.Patient
	BillingProvisioned bool
	EventPublished     bool
}

type PatientService interface {
	ListPatients(ctx context.Context) ([]*domain.Patient, error)
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
	CreatePatient(ctx context.Context, input CreatePatientInput) (*CreatePatientResult, error)
	UpdatePatient(ctx context.Context, id string, input UpdatePatientInput) (*domain.Patient, error)
	// DeletePatient reports false when no patient had the id.
	DeletePatient(ctx context.Context, id string) (bool, error)
}
