package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/pm/patient-system/internal/core/domain"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func validCreate() createPatientRequest {
	return createPatientRequest{
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Address:        "12 Main Street",
		BirthDate:      "1990-04-02",
		RegisteredDate: "2026-03-10",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %T (%v)", err, err)
	}
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidator_CreatePatient_Valid(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })
	req := validCreate()

	if err := v.Validate(&req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidator_CreatePatient_CollectsEveryField(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })
	req := createPatientRequest{
		Name:           "Jo",
		Email:          "not-an-email",
		Address:        "",
		BirthDate:      "2026-03-11",
		RegisteredDate: "10/03/2026",
	}

	fields := fieldsOf(t, v.Validate(&req))

	want := map[string]string{
		"name":            "name must be at least 3 characters",
		"email":           "email must be a valid email address",
		"address":         "address is required",
		"birth_date":      "birth_date must be in the past",
		"registered_date": "registered_date must be a date in YYYY-MM-DD format",
	}
	for field, msg := range want {
		if fields[field] != msg {
			t.Errorf("%s: got %q, want %q", field, fields[field], msg)
		}
	}
	if len(fields) != len(want) {
		t.Errorf("unexpected extra fields: %v", fields)
	}
}

func TestValidator_CreatePatient_RegisteredDateRules(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })

	future := validCreate()
	future.RegisteredDate = "2026-03-11"
	if fields := fieldsOf(t, v.Validate(&future)); fields["registered_date"] != "registered_date must not be in the future" {
		t.Fatalf("future registered date accepted: %v", fields)
	}

	missing := validCreate()
	missing.RegisteredDate = ""
	if fields := fieldsOf(t, v.Validate(&missing)); fields["registered_date"] != "registered_date is required" {
		t.Fatalf("missing registered date accepted on create: %v", fields)
	}
}

func TestValidator_UpdatePatient_RegisteredDateOptional(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })
	req := updatePatientRequest{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Address:   "12 Main Street",
		BirthDate: "1990-04-02",
	}

	if err := v.Validate(&req); err != nil {
		t.Fatalf("registered date must be optional on update, got %v", err)
	}

	req.RegisteredDate = "2030-01-01"
	if fields := fieldsOf(t, v.Validate(&req)); fields["registered_date"] == "" {
		t.Fatalf("future registered date accepted on update")
	}
}

func TestValidator_NameLengthBounds(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })
	req := validCreate()
	req.Name = "abcdefghijklmnopqrstuvwxyz12345" // 31 characters

	if fields := fieldsOf(t, v.Validate(&req)); fields["name"] != "name must be at most 30 characters" {
		t.Fatalf("unexpected name message: %v", fields)
	}
}
