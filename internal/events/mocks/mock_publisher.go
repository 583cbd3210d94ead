package mocks

import (
	"context"

	"patientapi/internal/events"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPatientCreated(ctx context.Context, ev events.PatientCreatedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
