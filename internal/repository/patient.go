package repository

import (
	"context"
	"errors"

	"patientapi/internal/model"
)

// ErrDuplicateEmail reports a write rejected by the unique email constraint on
// the patients table. The service-level existence pre-check is an optimization
// only; this error is the store-enforced outcome when two writers race it.
var ErrDuplicateEmail = errors.New("email already used by another patient")

// PatientRepository defines data access for patients using SQL queries only.
// No business logic here, strictly persistence operations.
type PatientRepository interface {
	// List returns all patients, most recently registered first.
	List(ctx context.Context) ([]model.Patient, error)

	// FindByID returns a patient by its ID. Absence surfaces as sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Patient, error)

	// ExistsByEmail reports whether any patient other than excludeID uses the
	// given email. An empty excludeID checks against every stored patient.
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)

	// Create inserts a new patient row; id is assigned by the database.
	// Returns the stored record, or ErrDuplicateEmail when the unique email
	// constraint rejects the insert.
	Create(ctx context.Context, p *model.Patient) (*model.Patient, error)

	// Update persists the mutable fields (name, email, address, date of birth)
	// of an existing patient. id and registered_date are never written.
	// Returns sql.ErrNoRows when the row no longer exists and
	// ErrDuplicateEmail on a unique email conflict.
	Update(ctx context.Context, p *model.Patient) (*model.Patient, error)

	// Delete removes a patient by ID. Returns sql.ErrNoRows when no row was
	// deleted.
	Delete(ctx context.Context, id string) error
}
