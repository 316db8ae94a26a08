package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
)

// PatientHandler handles HTTP requests for patient operations. Errors are
// returned to the echo error handler, which maps their kind to a status.
type PatientHandler struct {
	service ports.PatientService
}

func NewPatientHandler(service ports.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// List handles GET /patients.
//
// @Summary      List patients
// @Tags         patients
// @Produce      json
// @Success      200  {array}   patientResponse
// @Failure      500  {object}  map[string]string
// @Router       /patients [get]
func (h *PatientHandler) List(c echo.Context) error {
	patients, err := h.service.ListPatients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPatientResponses(patients))
}

// Get handles GET /patients/:id.
//
// @Summary      Get a patient
// @Tags         patients
// @Produce      json
// @Param        id   path      string  true  "Patient id"
// @Success      200  {object}  patientResponse
// @Failure      404  {object}  map[string]string
// @Router       /patients/{id} [get]
func (h *PatientHandler) Get(c echo.Context) error {
	p, err := h.service.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPatientResponse(p))
}

// Create handles POST /patients.
//
// @Summary      Create a patient
// @Description  Persists the patient, then provisions billing and publishes PATIENT_CREATED.
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        body  body      createPatientRequest  true  "Patient details"
// @Success      201   {object}  patientResponse
// @Header       201   {string}  Location  "/patients/{id}"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /patients [post]
func (h *PatientHandler) Create(c echo.Context) error {
	var req createPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.CreatePatient(c.Request().Context(), toCreatePatientInput(req))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/patients/"+result.Patient.ID)
	return c.JSON(http.StatusCreated, toPatientResponse(result.Patient))
}

// Update handles PUT /patients/:id.
//
// @Summary      Update a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Patient id"
// @Param        body  body      updatePatientRequest  true  "Patient details"
// @Success      200   {object}  patientResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /patients/{id} [put]
func (h *PatientHandler) Update(c echo.Context) error {
	var req updatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.UpdatePatient(c.Request().Context(), c.Param("id"), toUpdatePatientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPatientResponse(p))
}

// Delete handles DELETE /patients/:id.
//
// @Summary      Delete a patient
// @Tags         patients
// @Param        id   path  string  true  "Patient id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /patients/{id} [delete]
func (h *PatientHandler) Delete(c echo.Context) error {
	found, err := h.service.DeletePatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrPatientNotFound
	}
	return c.NoContent(http.StatusNoContent)
}
