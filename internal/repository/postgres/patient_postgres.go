package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"patientapi/internal/model"
	"patientapi/internal/repository"
)

// PatientPostgres is a PostgreSQL implementation of repository.PatientRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PatientPostgres struct {
	db *sql.DB
}

// NewPatientPostgres creates a new PatientPostgres repository.
func NewPatientPostgres(db *sql.DB) *PatientPostgres {
	return &PatientPostgres{db: db}
}

var _ repository.PatientRepository = (*PatientPostgres)(nil)

// IsNoRowsError reports whether err is the driver's no-rows sentinel.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// translateError maps a postgres unique violation (SQLSTATE 23505) to the
// repository-level duplicate email error. Everything else passes through.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicateEmail
	}
	return err
}

// List returns all patients, newest registration first. The ordering is stable
// within a single snapshot read.
func (r *PatientPostgres) List(ctx context.Context) ([]model.Patient, error) {
	const q = `
		SELECT id, name, email, address, date_of_birth, registered_date
		FROM patients
		ORDER BY registered_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Patient, 0)
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Email,
			&p.Address,
			&p.DateOfBirth,
			&p.RegisteredDate,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single patient by its ID.
func (r *PatientPostgres) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	const q = `
		SELECT id, name, email, address, date_of_birth, registered_date
		FROM patients
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var p model.Patient
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Address,
		&p.DateOfBirth,
		&p.RegisteredDate,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExistsByEmail checks email usage, optionally excluding one patient so an
// update can keep its own current email.
func (r *PatientPostgres) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	if excludeID == "" {
		const q = `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`
		if err := r.db.QueryRowContext(ctx, q, email).Scan(&exists); err != nil {
			return false, err
		}
		return exists, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`
	if err := r.db.QueryRowContext(ctx, q, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a new patient row and returns the stored record with its
// database-assigned id.
func (r *PatientPostgres) Create(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	const q = `
		INSERT INTO patients (name, email, address, date_of_birth, registered_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, address, date_of_birth, registered_date
	`
	row := r.db.QueryRowContext(ctx, q,
		p.Name,
		p.Email,
		p.Address,
		p.DateOfBirth,
		p.RegisteredDate,
	)
	var out model.Patient
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Email,
		&out.Address,
		&out.DateOfBirth,
		&out.RegisteredDate,
	); err != nil {
		return nil, translateError(err)
	}
	return &out, nil
}

// Update writes the mutable fields of an existing patient row. id and
// registered_date stay untouched.
func (r *PatientPostgres) Update(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	const q = `
		UPDATE patients
		SET name = $2, email = $3, address = $4, date_of_birth = $5
		WHERE id = $1
		RETURNING id, name, email, address, date_of_birth, registered_date
	`
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Email,
		p.Address,
		p.DateOfBirth,
	)
	var out model.Patient
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Email,
		&out.Address,
		&out.DateOfBirth,
		&out.RegisteredDate,
	); err != nil {
		return nil, translateError(err)
	}
	return &out, nil
}

// Delete removes a patient by ID and reports absence via sql.ErrNoRows so the
// caller can distinguish it from a successful delete.
func (r *PatientPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM patients WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
