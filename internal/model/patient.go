package model

import "time"

// Patient is the sole domain entity of the service.
// This is a pure domain model with no database-specific dependencies or tags.
// ID and RegisteredDate are fixed at creation and never change afterwards; the
// remaining fields are mutable through the update use case.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	DateOfBirth    time.Time `json:"dateOfBirth"`
	RegisteredDate time.Time `json:"registeredDate"`
}
