package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

const (
	defaultPersistTimeout = 5 * time.Second
	defaultBillingTimeout = 3 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// PatientTimeouts bounds each step of the create flow independently. Zero
// values fall back to the package defaults.
type PatientTimeouts struct {
	Persist time.Duration
	Billing time.Duration
	Publish time.Duration
}

// PatientService orchestrates the patient lifecycle across the datastore,
// billing and the event stream.
type PatientService struct {
	repo      ports.PatientRepository
	codes     ports.CodeSequence
	billing   ports.BillingProvisioner
	publisher ports.PatientEventPublisher
	timeouts  PatientTimeouts
	newID     func() string
	logger    zerolog.Logger
}

func NewPatientService(
	repo ports.PatientRepository,
	codes ports.CodeSequence,
	billing ports.BillingProvisioner,
	publisher ports.PatientEventPublisher,
	timeouts PatientTimeouts,
	logger zerolog.Logger,
) *PatientService {
	if timeouts.Persist <= 0 {
		timeouts.Persist = defaultPersistTimeout
	}
	if timeouts.Billing <= 0 {
		timeouts.Billing = defaultBillingTimeout
	}
	if timeouts.Publish <= 0 {
		timeouts.Publish = defaultPublishTimeout
	}
	return &PatientService{
		repo:      repo,
		codes:     codes,
		billing:   billing,
		publisher: publisher,
		timeouts:  timeouts,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

func (s *PatientService) ListPatients(ctx context.Context) ([]*domain.Patient, error) {
	patients, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// CreatePatient runs the create flow. The call succeeds once the patient is
// persisted; billing and publish failures after that point are logged and
// counted but never returned.
func (s *PatientService) CreatePatient(ctx context.Context, input ports.CreatePatientInput) (*ports.CreatePatientResult, error) {
	// 1. Reject a known email before touching anything.
	start := time.Now()
	exists, err := s.repo.ExistsByEmail(ctx, input.Email)
	observeStep("check_email", start)
	if err != nil {
		return nil, fmt.Errorf("create patient: check email: %w", err)
	}
	if exists {
		s.logger.Warn().Str("email", input.Email).Msg("patient email already registered")
		return nil, domain.ErrEmailAlreadyExists
	}

	// 2. Persist. The store's unique index settles concurrent creates that
	//    both passed step 1.
	patient, err := s.persist(ctx, input)
	if err != nil {
		return nil, err
	}
	metrics.PatientsCreatedTotal.Inc()

	// The record is committed; the remaining steps must not be cut short by
	// the caller going away.
	detached := context.WithoutCancel(ctx)
	result := &ports.CreatePatientResult{Patient: patient}

	// 3. Billing account (synchronous, failure tolerated).
	result.BillingProvisioned = s.provisionBilling(detached, patient)

	// 4. Creation event (failure tolerated, no rollback).
	result.EventPublished = s.publishCreated(detached, patient)

	s.logger.Info().
		Str("patient_id", patient.ID).
		Str("patient_code", patient.Code).
		Bool("billing_provisioned", result.BillingProvisioned).
		Bool("event_published", result.EventPublished).
		Msg("patient created")

	return result, nil
}

func (s *PatientService) persist(ctx context.Context, input ports.CreatePatientInput) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Persist)
	defer cancel()
	defer observeStep("persist", time.Now())

	seq, err := s.codes.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("create patient: next code: %w", err)
	}

	patient := &domain.Patient{
		ID:             s.newID(),
		Code:           domain.FormatPatientCode(domain.PatientCodePrefix, domain.PatientCodeWidth, seq),
		Name:           input.Name,
		Email:          input.Email,
		Address:        input.Address,
		BirthDate:      input.BirthDate,
		RegisteredDate: input.RegisteredDate,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			s.logger.Warn().Str("email", input.Email).Msg("patient email taken by a concurrent create")
			return nil, err
		}
		return nil, fmt.Errorf("create patient: persist: %w", err)
	}
	return patient, nil
}

func (s *PatientService) provisionBilling(ctx context.Context, p *domain.Patient) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Billing)
	defer cancel()
	defer observeStep("billing", time.Now())

	account, err := s.billing.CreateBillingAccount(ctx, ports.BillingAccountRequest{
		PatientID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
	})
	if err != nil {
		metrics.BillingProvisionFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("billing account not created, patient needs reconciliation")
		return false
	}

	s.logger.Debug().
		Str("patient_id", p.ID).
		Str("account_id", account.AccountID).
		Str("status", account.Status).
		Msg("billing account created")
	return true
}

func (s *PatientService) publishCreated(ctx context.Context, p *domain.Patient) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Publish)
	defer cancel()
	defer observeStep("publish", time.Now())

	if err := s.publisher.Publish(ctx, domain.NewPatientCreatedEvent(p)); err != nil {
		metrics.EventPublishFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("patient created event not published")
		return false
	}
	return true
}

// UpdatePatient overwrites the mutable fields of an existing patient. Billing
// and the event stream are not involved.
func (s *PatientService) UpdatePatient(ctx context.Context, id string, input ports.UpdatePatientInput) (*domain.Patient, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}

	patient.Apply(domain.PatientUpdate{
		Name:           input.Name,
		Email:          input.Email,
		Address:        input.Address,
		BirthDate:      input.BirthDate,
		RegisteredDate: input.RegisteredDate,
	})

	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) || errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}

	s.logger.Info().Str("patient_id", patient.ID).Msg("patient updated")
	return patient, nil
}

func (s *PatientService) DeletePatient(ctx context.Context, id string) (bool, error) {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	if !exists {
		return false, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete patient: %w", err)
	}

	s.logger.Info().Str("patient_id", id).Msg("patient deleted")
	return true, nil
}

func observeStep(step string, start time.Time) {
	metrics.CreateStepDuration.With(prometheus.Labels{"step": step}).Observe(time.Since(start).Seconds())
}
