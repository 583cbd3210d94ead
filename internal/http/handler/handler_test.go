package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"patientapi/internal/model"
	"patientapi/internal/service"
	serviceMocks "patientapi/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func patientResponse() *service.PatientResponse {
	return &service.PatientResponse{
		ID:             "11111111-1111-1111-1111-111111111111",
		Name:           "John Doe",
		Email:          "john@example.com",
		Address:        "123 Main St",
		DateOfBirth:    "1990-04-01",
		RegisteredDate: "2024-01-15",
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPatients(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients", ListPatients(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).
			Return([]service.PatientResponse{*patientResponse()}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body []service.PatientResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, patientResponse().ID, body[0].ID)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db fail")).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestCreatePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Post("/patients", CreatePatient(mockSvc))

	createReq := service.PatientRequest{
		Name:           "John Doe",
		Email:          "john@example.com",
		Address:        "123 Main St",
		DateOfBirth:    "1990-04-01",
		RegisteredDate: "2024-01-15",
	}

	t.Run("created", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, createReq).Return(patientResponse(), nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/patients", jsonBody(t, createReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body service.PatientResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, patientResponse().ID, body.ID)
		assert.Equal(t, "2024-01-15", body.RegisteredDate)
	})

	t.Run("duplicate email yields conflict", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, createReq).Return(nil, service.ErrEmailInUse).Once()

		req := httptest.NewRequest(http.MethodPost, "/patients", jsonBody(t, createReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "EMAIL_EXISTS", body.Error.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, createReq).
			Return(nil, service.ErrValidation).Once()

		req := httptest.NewRequest(http.MethodPost, "/patients", jsonBody(t, createReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	})

	t.Run("billing failure reports the persisted record", func(t *testing.T) {
		persisted := &model.Patient{
			ID:             patientResponse().ID,
			Name:           "John Doe",
			Email:          "john@example.com",
			Address:        "123 Main St",
			DateOfBirth:    time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
			RegisteredDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
		mockSvc.On("Create", mock.Anything, createReq).
			Return(nil, &service.BillingProvisioningError{Patient: persisted, Err: errors.New("rpc timeout")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/patients", jsonBody(t, createReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body errorPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "BILLING_PROVISIONING_FAILED", body.Error.Code)
		require.NotNil(t, body.Patient)
		assert.Equal(t, persisted.ID, body.Patient.ID)
	})

	mockSvc.AssertExpectations(t)
}

func TestUpdatePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Put("/patients/:id", UpdatePatient(mockSvc))

	id := patientResponse().ID
	updateReq := service.PatientRequest{
		Name:        "John Updated",
		Email:       "john.updated@example.com",
		Address:     "456 Oak Ave",
		DateOfBirth: "1990-04-01",
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, id, updateReq).Return(patientResponse(), nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/patients/"+id, jsonBody(t, updateReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.NewString()
		mockSvc.On("Update", mock.Anything, missing, updateReq).
			Return(nil, service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodPut, "/patients/"+missing, jsonBody(t, updateReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("invalid id format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/patients/not-a-uuid", jsonBody(t, updateReq))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestDeletePatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Delete("/patients/:id", DeletePatient(mockSvc))

	id := patientResponse().ID

	t.Run("no content on success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("absent id reports not found", func(t *testing.T) {
		missing := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, missing).Return(service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/patients/"+missing, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestGetPatient(t *testing.T) {
	mockSvc := new(serviceMocks.MockPatientService)
	app := fiber.New()
	app.Get("/patients/:id", GetPatient(mockSvc))

	id := patientResponse().ID

	t.Run("found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, id).Return(patientResponse(), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.NewString()
		mockSvc.On("Get", mock.Anything, missing).Return(nil, service.ErrPatientNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/patients/"+missing, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}
