package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateBillingAccount(ctx context.Context, patientID, name, email string) error {
	args := m.Called(ctx, patientID, name, email)
	return args.Error(0)
}
