package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

// ErrIncompleteEvent is returned for events without a patient id or type.
// Retrying cannot fix it.
var ErrIncompleteEvent = domain.ErrIncompleteEvent

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, patientID, eventType string) (bool, error)
	Mark(ctx context.Context, patientID, eventType string) error
}

type analyticsService struct {
	dedup DedupChecker
	log   zerolog.Logger
}

// NewAnalyticsService returns an AnalyticsService implementation.
func NewAnalyticsService(dedup DedupChecker, log zerolog.Logger) ports.AnalyticsService {
	return &analyticsService{dedup: dedup, log: log}
}

// Process records a single patient event. Redelivered events are skipped.
func (s *analyticsService) Process(ctx context.Context, in ports.PatientEventInput) error {
	ev := in.Event
	if err := ev.Validate(); err != nil {
		return err
	}

	// 1. Idempotency check. A dedup outage processes anyway.
	isDup, err := s.dedup.IsDuplicate(ctx, ev.PatientID, ev.EventType)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", ev.PatientID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.AnalyticsEventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("patient_id", ev.PatientID).Str("message_id", in.MessageID).Msg("duplicate event skipped")
		return nil
	}
	metrics.AnalyticsEventsDedupTotal.WithLabelValues("miss").Inc()

	// 2. Record the fact.
	s.log.Info().
		Str("patient_id", ev.PatientID).
		Str("name", ev.Name).
		Str("email", ev.Email).
		Str("event_type", ev.EventType).
		Str("message_id", in.MessageID).
		Msg("patient event received")
	metrics.AnalyticsEventsProcessedTotal.WithLabelValues(ev.EventType).Inc()

	// 3. Mark as processed (non-fatal on failure).
	if err := s.dedup.Mark(ctx, ev.PatientID, ev.EventType); err != nil {
		s.log.Warn().Err(err).Str("patient_id", ev.PatientID).Msg("failed to set dedup key")
	}

	return nil
}
