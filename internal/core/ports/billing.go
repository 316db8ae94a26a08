package ports

import "context"

type BillingAccountRequest struct {
	PatientID string
	Name      string
	Email     string
}

type BillingAccount struct {
	AccountID string
	Status    string
}

// BillingProvisioner creates the billing account for a newly persisted patient.
type BillingProvisioner interface {
	CreateBillingAccount(ctx context.Context, req BillingAccountRequest) (*BillingAccount, error)
}
