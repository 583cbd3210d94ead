package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"sync"
	"time"

	"patientapi/internal/billing"
	"patientapi/internal/events"
	"patientapi/internal/model"
	"patientapi/internal/repository"
)

const (
	dateLayout     = "2006-01-02"
	maxNameLength  = 30
	publishTimeout = 5 * time.Second
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrEmailInUse      = errors.New("a patient with this email already exists")
	ErrValidation      = errors.New("invalid patient request")
)

// BillingProvisioningError reports that the patient row was persisted but the
// remote billing account could not be provisioned. The record stays
// authoritative and is not rolled back; reconciliation happens out of band.
type BillingProvisioningError struct {
	Patient *model.Patient
	Err     error
}

func (e *BillingProvisioningError) Error() string {
	return fmt.Sprintf("billing provisioning failed for patient %s: %v", e.Patient.ID, e.Err)
}

func (e *BillingProvisioningError) Unwrap() error { return e.Err }

// PatientRequest carries the caller-supplied fields for create and update.
// Dates are YYYY-MM-DD strings; RegisteredDate is required on create only and
// ignored on update.
type PatientRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	DateOfBirth    string `json:"dateOfBirth"`
	RegisteredDate string `json:"registeredDate,omitempty"`
}

// PatientResponse is the external shape of a patient record.
type PatientResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	DateOfBirth    string `json:"dateOfBirth"`
	RegisteredDate string `json:"registeredDate"`
}

// PatientService defines the patient use cases. It sequences the store write,
// the billing provisioning call, and the event publication for a single
// logical patient mutation.
type PatientService interface {
	// List returns all patients.
	List(ctx context.Context) ([]PatientResponse, error)

	// Get returns a single patient by its ID.
	Get(ctx context.Context, id string) (*PatientResponse, error)

	// Create persists a new patient, provisions its billing account, and
	// announces the creation on the event stream.
	Create(ctx context.Context, req PatientRequest) (*PatientResponse, error)

	// Update mutates name, email, address, and date of birth of an existing
	// patient. No billing call and no event on update.
	Update(ctx context.Context, id string, req PatientRequest) (*PatientResponse, error)

	// Delete removes a patient by ID.
	Delete(ctx context.Context, id string) error
}

// patientService is a concrete implementation of PatientService. It holds no
// mutable state of its own and is safe for concurrent use; the unique email
// constraint in the store is the only cross-request arbiter.
type patientService struct {
	repo      repository.PatientRepository
	billing   billing.Client
	publisher events.Publisher
	metrics   *Metrics
	now       func() time.Time

	publishWG sync.WaitGroup
}

// NewPatientService constructs the orchestrator with its collaborators
// injected. billingClient and publisher may be nil: a nil billing client runs
// the service in billing-free mode, and a nil publisher disables event
// publication.
func NewPatientService(repo repository.PatientRepository, billingClient billing.Client, publisher events.Publisher, metrics *Metrics) PatientService {
	return &patientService{
		repo:      repo,
		billing:   billingClient,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// List returns all patients mapped to the response shape. Pure delegation, no
// side effects.
func (s *patientService) List(ctx context.Context) ([]PatientResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PatientResponse, 0, len(items))
	for i := range items {
		out = append(out, *toResponse(&items[i]))
	}
	return out, nil
}

// Get returns a patient by ID.
func (s *patientService) Get(ctx context.Context, id string) (*PatientResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return toResponse(p), nil
}

// Create runs the creation sequence: email pre-check, persist, billing
// provisioning, event publication. The persist is the point of no return:
// a billing failure afterwards is surfaced but never rolls the record back,
// and publish failures are logged and counted only.
func (s *patientService) Create(ctx context.Context, req PatientRequest) (*PatientResponse, error) {
	dob, reg, err := validateRequest(req, true)
	if err != nil {
		return nil, err
	}

	// Early exit only. Two concurrent creates with the same email can both
	// pass this check; the unique constraint in the store decides the winner.
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailInUse
	}

	stored, err := s.repo.Create(ctx, &model.Patient{
		Name:           req.Name,
		Email:          req.Email,
		Address:        req.Address,
		DateOfBirth:    dob,
		RegisteredDate: reg,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	if s.billing != nil {
		if err := s.billing.CreateBillingAccount(ctx, stored.ID, stored.Name, stored.Email); err != nil {
			s.metrics.billingFailure()
			logWarn("billing_provisioning_failed", map[string]any{
				"patient_id": stored.ID,
				"error":      err.Error(),
			})
			// The record exists without a guaranteed billing account; the
			// creation event is still published.
			s.publishCreated(stored)
			return nil, &BillingProvisioningError{Patient: stored, Err: err}
		}
	}

	s.publishCreated(stored)
	return toResponse(stored), nil
}

// Update mutates an existing patient. Only name, email, address, and date of
// birth change; id and registered date are immutable.
func (s *patientService) Update(ctx context.Context, id string, req PatientRequest) (*PatientResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	dob, _, err := validateRequest(req, false)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	// Keeping the patient's own current email is fine; only other records
	// count against uniqueness.
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailInUse
	}

	current.Name = req.Name
	current.Email = req.Email
	current.Address = req.Address
	current.DateOfBirth = dob

	stored, err := s.repo.Update(ctx, current)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailInUse
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return toResponse(stored), nil
}

// Delete removes a patient. Deleting an absent record reports
// ErrPatientNotFound, consistently.
func (s *patientService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPatientNotFound
		}
		return err
	}
	return nil
}

// publishCreated hands the creation event to the stream without blocking the
// caller. The request outcome is already decided at this point, so errors are
// logged and counted but never surfaced.
func (s *patientService) publishCreated(p *model.Patient) {
	if s.publisher == nil {
		return
	}
	ev := events.PatientCreatedEvent{
		PatientID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Timestamp: s.now().UTC(),
	}
	s.publishWG.Add(1)
	go func() {
		defer s.publishWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishPatientCreated(ctx, ev); err != nil {
			s.metrics.publishFailure()
			logWarn("patient_created_publish_failed", map[string]any{
				"patient_id": ev.PatientID,
				"error":      err.Error(),
			})
		}
	}()
}

// waitPublished blocks until all in-flight event publications settle. Used by
// tests only.
func (s *patientService) waitPublished() {
	s.publishWG.Wait()
}

func validateRequest(req PatientRequest, creating bool) (dob, reg time.Time, err error) {
	if req.Name == "" {
		return dob, reg, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(req.Name) > maxNameLength {
		return dob, reg, fmt.Errorf("%w: name cannot exceed %d characters", ErrValidation, maxNameLength)
	}
	if req.Email == "" {
		return dob, reg, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, mailErr := mail.ParseAddress(req.Email); mailErr != nil {
		return dob, reg, fmt.Errorf("%w: email must be valid", ErrValidation)
	}
	if req.Address == "" {
		return dob, reg, fmt.Errorf("%w: address is required", ErrValidation)
	}
	if req.DateOfBirth == "" {
		return dob, reg, fmt.Errorf("%w: date of birth is required", ErrValidation)
	}
	dob, err = time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return dob, reg, fmt.Errorf("%w: date of birth must be formatted as %s", ErrValidation, dateLayout)
	}
	if creating {
		if req.RegisteredDate == "" {
			return dob, reg, fmt.Errorf("%w: registered date is required", ErrValidation)
		}
		reg, err = time.Parse(dateLayout, req.RegisteredDate)
		if err != nil {
			return dob, reg, fmt.Errorf("%w: registered date must be formatted as %s", ErrValidation, dateLayout)
		}
	}
	return dob, reg, nil
}

func toResponse(p *model.Patient) *PatientResponse {
	return &PatientResponse{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Address:        p.Address,
		DateOfBirth:    p.DateOfBirth.Format(dateLayout),
		RegisteredDate: p.RegisteredDate.Format(dateLayout),
	}
}

func logWarn(msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "warn",
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
