package handler

// --- Request / Response types ---

type createPatientRequest struct {
	Name           string `json:"name"            validate:"required,min=3,max=30"`
	Email          string `json:"email"           validate:"required,email"`
	Address        string `json:"address"         validate:"required,min=5,max=100"`
	BirthDate      string `json:"birth_date"      validate:"required,isodate,past"`
	RegisteredDate string `json:"registered_date" validate:"required,isodate,pastorpresent"`
}

// updatePatientRequest mirrors createPatientRequest except that the
// registered date may be omitted to keep the stored one.
type updatePatientRequest struct {
	Name           string `json:"name"            validate:"required,min=3,max=30"`
	Email          string `json:"email"           validate:"required,email"`
	Address        string `json:"address"         validate:"required,min=5,max=100"`
	BirthDate      string `json:"birth_date"      validate:"required,isodate,past"`
	RegisteredDate string `json:"registered_date" validate:"omitempty,isodate,pastorpresent"`
}

type patientResponse struct {
	ID             string `json:"id"`
	PatientCode    string `json:"patient_code"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	BirthDate      string `json:"birth_date"`
	RegisteredDate string `json:"registered_date"`
}
