package handler

import (
	"strings"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
)

// The mappers run after validation, so date parsing cannot fail here.

func toCreatePatientInput(req createPatientRequest) ports.CreatePatientInput {
	birth, _ := parseDate(req.BirthDate)
	registered, _ := parseDate(req.RegisteredDate)
	return ports.CreatePatientInput{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Address:        strings.TrimSpace(req.Address),
		BirthDate:      birth,
		RegisteredDate: registered,
	}
}

func toUpdatePatientInput(req updatePatientRequest) ports.UpdatePatientInput {
	birth, _ := parseDate(req.BirthDate)
	in := ports.UpdatePatientInput{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Address:   strings.TrimSpace(req.Address),
		BirthDate: birth,
	}
	if req.RegisteredDate != "" {
		registered, _ := parseDate(req.RegisteredDate)
		in.RegisteredDate = &registered
	}
	return in
}

func toPatientResponse(p *domain.Patient) patientResponse {
	return patientResponse{
		ID:             p.ID,
		PatientCode:    p.Code,
		Name:           p.Name,
		Email:          p.Email,
		Address:        p.Address,
		BirthDate:      formatDate(p.BirthDate),
		RegisteredDate: formatDate(p.RegisteredDate),
	}
}

func toPatientResponses(ps []*domain.Patient) []patientResponse {
	out := make([]patientResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPatientResponse(p))
	}
	return out
}
