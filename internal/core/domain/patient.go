package domain

import (
	"fmt"
	"time"
)

const (
	PatientCodePrefix = "P"
	PatientCodeWidth  = 6
)

// Patient is the primary record owned by the patient service.
type Patient struct {
	ID             string    `json:"id"`
	Code           string    `json:"patient_code"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	BirthDate      time.Time `json:"birth_date"`
	RegisteredDate time.Time `json:"registered_date"`
}

// PatientUpdate is the set of mutable fields. A nil RegisteredDate keeps the
// stored value.
type PatientUpdate struct {
	Name           string
	Email          string
	Address        string
	BirthDate      time.Time
	RegisteredDate *time.Time
}

// Apply overwrites the mutable fields of p. ID and Code never change.
func (p *Patient) Apply(u PatientUpdate) {
	p.Name = u.Name
	p.Email = u.Email
	p.Address = u.Address
	p.BirthDate = u.BirthDate
	if u.RegisteredDate != nil {
		p.RegisteredDate = *u.RegisteredDate
	}
}

// FormatPatientCode renders a sequence value as a business code, e.g. P000042.
func FormatPatientCode(prefix string, width int, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}
