package protoschema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/pm/patient-system/internal/core/domain"
)

// MarshalPatientEvent encodes ev in the protobuf wire format.
func MarshalPatientEvent(ev domain.PatientEvent) ([]byte, error) {
	m := dynamicpb.NewMessage(patientEventDesc)
	setString(m, "patient_id", ev.PatientID)
	setString(m, "name", ev.Name)
	setString(m, "email", ev.Email)
	setString(m, "event_type", ev.EventType)

	b, err := proto.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal patient event: %w", err)
	}
	return b, nil
}

// UnmarshalPatientEvent decodes a payload. Fields added by newer producers are
// skipped.
func UnmarshalPatientEvent(b []byte) (domain.PatientEvent, error) {
	m := dynamicpb.NewMessage(patientEventDesc)
	if err := proto.Unmarshal(b, m); err != nil {
		return domain.PatientEvent{}, fmt.Errorf("unmarshal patient event: %w", err)
	}
	return domain.PatientEvent{
		PatientID: getString(m, "patient_id"),
		Name:      getString(m, "name"),
		Email:     getString(m, "email"),
		EventType: getString(m, "event_type"),
	}, nil
}
