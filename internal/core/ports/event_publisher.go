package ports

import (
	"context"

	"github.com/pm/patient-system/internal/core/domain"
)

// PatientEventPublisher hands a patient event to the event stream.
type PatientEventPublisher interface {
	Publish(ctx context.Context, event domain.PatientEvent) error
}
