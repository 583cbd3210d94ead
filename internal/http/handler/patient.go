package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"patientapi/internal/service"
)

// writeServiceError translates the orchestrator's error taxonomy into HTTP
// responses. Billing provisioning failure is the one case where an error
// response still carries data: the record was persisted and the caller must
// learn the patient exists with possibly-incomplete billing.
func writeServiceError(c *fiber.Ctx, err error) error {
	var be *service.BillingProvisioningError
	switch {
	case errors.Is(err, service.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, service.ErrEmailInUse):
		return writeError(c, fiber.StatusConflict, "EMAIL_EXISTS", "a patient with this email already exists")
	case errors.Is(err, service.ErrPatientNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "patient not found")
	case errors.As(err, &be):
		return c.Status(fiber.StatusBadGateway).JSON(errorPayload{
			RequestID: requestIDFromCtx(c),
			Error: errorEnvelope{
				Code:    "BILLING_PROVISIONING_FAILED",
				Message: "patient was created but billing account provisioning failed",
			},
			Patient: &service.PatientResponse{
				ID:             be.Patient.ID,
				Name:           be.Patient.Name,
				Email:          be.Patient.Email,
				Address:        be.Patient.Address,
				DateOfBirth:    be.Patient.DateOfBirth.Format("2006-01-02"),
				RegisteredDate: be.Patient.RegisteredDate.Format("2006-01-02"),
			},
		})
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListPatients returns every stored patient.
//
// @Summary List patients
// @Tags patients
// @Produce json
// @Success 200 {array} service.PatientResponse
// @Router /patients [get]
func ListPatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// CreatePatient registers a new patient and triggers billing provisioning and
// event publication downstream.
//
// @Summary Create a patient
// @Tags patients
// @Accept json
// @Produce json
// @Param patient body service.PatientRequest true "patient to create"
// @Success 201 {object} service.PatientResponse
// @Failure 409 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /patients [post]
func CreatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.PatientRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		res, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// UpdatePatient mutates an existing patient's name, email, address, and date
// of birth.
//
// @Summary Update a patient
// @Tags patients
// @Accept json
// @Produce json
// @Param id path string true "patient id"
// @Param patient body service.PatientRequest true "fields to update"
// @Success 200 {object} service.PatientResponse
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /patients/{id} [put]
func UpdatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req service.PatientRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		res, err := svc.Update(c.UserContext(), id, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DeletePatient removes a patient by id.
//
// @Summary Delete a patient
// @Tags patients
// @Param id path string true "patient id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /patients/{id} [delete]
func DeletePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetPatient returns a single patient by id.
//
// @Summary Get a patient
// @Tags patients
// @Produce json
// @Param id path string true "patient id"
// @Success 200 {object} service.PatientResponse
// @Failure 404 {object} errorPayload
// @Router /patients/{id} [get]
func GetPatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
