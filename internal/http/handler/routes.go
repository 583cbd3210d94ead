package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"patientapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay minimal; business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.PatientService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/patients", ListPatients(svc))
	app.Post("/patients", CreatePatient(svc))
	app.Get("/patients/:id", GetPatient(svc))
	app.Put("/patients/:id", UpdatePatient(svc))
	app.Delete("/patients/:id", DeletePatient(svc))
}
