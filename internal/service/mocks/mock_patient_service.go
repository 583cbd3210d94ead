package mocks

import (
	"context"

	"patientapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockPatientService struct {
	mock.Mock
}

func (m *MockPatientService) List(ctx context.Context) ([]service.PatientResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PatientResponse), args.Error(1)
}

func (m *MockPatientService) Get(ctx context.Context, id string) (*service.PatientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PatientResponse), args.Error(1)
}

func (m *MockPatientService) Create(ctx context.Context, req service.PatientRequest) (*service.PatientResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PatientResponse), args.Error(1)
}

func (m *MockPatientService) Update(ctx context.Context, id string, req service.PatientRequest) (*service.PatientResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PatientResponse), args.Error(1)
}

func (m *MockPatientService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
