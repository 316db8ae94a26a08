package ports

import (
	"context"

	"github.com/pm/patient-system/internal/core/domain"
)

// PatientEventInput is a decoded stream entry awaiting processing.
type PatientEventInput struct {
	MessageID string
	Event     domain.PatientEvent
}

type AnalyticsService interface {
	Process(ctx context.Context, in PatientEventInput) error
}
