package events

import (
	"context"
	"time"
)

// PatientCreatedEvent announces a newly persisted patient to downstream
// consumers. The field set is the only contract consumers rely on.
type PatientCreatedEvent struct {
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces patient lifecycle events to a message stream with
// at-least-once delivery toward consumers. Publish failures are the caller's
// to log and count; they must never change the outcome of the triggering
// request.
type Publisher interface {
	PublishPatientCreated(ctx context.Context, ev PatientCreatedEvent) error
}
