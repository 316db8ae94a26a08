package ports

import (
	"context"

	"github.com/pm/patient-system/internal/core/domain"
)

// PatientRepository persists patients. Implementations enforce a unique
// constraint on email and report violations as domain.ErrEmailAlreadyExists.
type PatientRepository interface {
	FindAll(ctx context.Context) ([]*domain.Patient, error)
	FindByID(ctx context.Context, id string) (*domain.Patient, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, p *domain.Patient) error
	Update(ctx context.Context, p *domain.Patient) error
	Delete(ctx context.Context, id string) error
}

// CodeSequence hands out strictly increasing values for patient codes.
type CodeSequence interface {
	Next(ctx context.Context) (int64, error)
}
