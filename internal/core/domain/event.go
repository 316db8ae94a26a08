package domain

const EventTypePatientCreated = "PATIENT_CREATED"

// PatientEvent is the immutable fact emitted on the event stream after a
// patient has been persisted.
type PatientEvent struct {
	PatientID string
	Name      string
	Email     string
	EventType string
}

// NewPatientCreatedEvent builds the creation fact for p.
func NewPatientCreatedEvent(p *Patient) PatientEvent {
	return PatientEvent{
		PatientID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		EventType: EventTypePatientCreated,
	}
}

// Validate rejects events that can never be processed.
func (e PatientEvent) Validate() error {
	if e.PatientID == "" || e.EventType == "" {
		return ErrIncompleteEvent
	}
	return nil
}
