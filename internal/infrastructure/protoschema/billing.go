package protoschema

import "google.golang.org/protobuf/types/dynamicpb"

// NewBillingRequest builds a billing.BillingRequest.
func NewBillingRequest(patientID, name, email string) *dynamicpb.Message {
	m := dynamicpb.NewMessage(billingRequestDesc)
	setString(m, "patient_id", patientID)
	setString(m, "name", name)
	setString(m, "email", email)
	return m
}

// EmptyBillingRequest is a decode target for servers.
func EmptyBillingRequest() *dynamicpb.Message {
	return dynamicpb.NewMessage(billingRequestDesc)
}

// BillingRequestFields reads the fields of a billing.BillingRequest.
func BillingRequestFields(m *dynamicpb.Message) (patientID, name, email string) {
	return getString(m, "patient_id"), getString(m, "name"), getString(m, "email")
}

// NewBillingResponse builds a billing.BillingResponse.
func NewBillingResponse(accountID, status string) *dynamicpb.Message {
	m := dynamicpb.NewMessage(billingResponseDesc)
	setString(m, "account_id", accountID)
	setString(m, "status", status)
	return m
}

// EmptyBillingResponse is a decode target for clients.
func EmptyBillingResponse() *dynamicpb.Message {
	return dynamicpb.NewMessage(billingResponseDesc)
}

// BillingResponseFields reads the fields of a billing.BillingResponse.
func BillingResponseFields(m *dynamicpb.Message) (accountID, status string) {
	return getString(m, "account_id"), getString(m, "status")
}
