package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// MockLoginSvc is a mock implementation of LoginSvc
type MockLoginSvc struct {
	mock.Mock
}

func (m *MockLoginSvc) Login(ctx context.Context, subjectID string, imageBytes []byte) (*domain.LoginAttempt, error) {
	args := m.Called(ctx, subjectID, imageBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginAttempt), args.Error(1)
}

func (m *MockLoginSvc) DeleteTemplate(ctx context.Context, subjectID string) error {
	args := m.Called(ctx, subjectID)
	return args.Error(0)
}

func TestLoginHandler_Login(t *testing.T) {
	templateID := uuid.New()

	tests := []struct {
		name           string
		subjectID      string
		imageContent   []byte
		contentType    string
		setupMock      func(*MockLoginSvc)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:         "verified",
			subjectID:    "user_001",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockLoginSvc) {
				m.On("Login", mock.Anything, "user_001", mock.Anything).Return(&domain.LoginAttempt{
					SubjectID:  "user_001",
					TemplateID: &templateID,
					Verified:   true,
					Distance:   0.12,
					Confidence: 0.76,
					LatencyMs:  42,
				}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp LoginResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Verified)
				assert.InDelta(t, 0.76, resp.Confidence, 1e-9)
				assert.InDelta(t, 0.12, resp.Distance, 1e-9)
				assert.Equal(t, int64(42), resp.LatencyMs)
			},
		},
		{
			name:         "not verified is still a 200 decision",
			subjectID:    "user_001",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockLoginSvc) {
				m.On("Login", mock.Anything, "user_001", mock.Anything).Return(&domain.LoginAttempt{
					SubjectID:  "user_001",
					Verified:   false,
					Distance:   0.81,
					Confidence: 0,
					LatencyMs:  40,
				}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp LoginResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.False(t, resp.Verified)
				assert.Zero(t, resp.Confidence)
			},
		},
		{
			name:           "missing subject_id",
			subjectID:      "",
			imageContent:   make([]byte, 5000),
			contentType:    "image/jpeg",
			setupMock:      func(m *MockLoginSvc) {},
			expectedStatus: 422,
		},
		{
			name:           "missing image",
			subjectID:      "user_001",
			imageContent:   nil,
			contentType:    "",
			setupMock:      func(m *MockLoginSvc) {},
			expectedStatus: 422,
		},
		{
			name:         "template not found",
			subjectID:    "ghost",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockLoginSvc) {
				m.On("Login", mock.Anything, "ghost", mock.Anything).Return(nil, domain.ErrTemplateNotFound)
			},
			expectedStatus: 404,
		},
		{
			name:         "capture rejected",
			subjectID:    "user_001",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockLoginSvc) {
				m.On("Login", mock.Anything, "user_001", mock.Anything).Return(nil, domain.CaptureError(domain.OutcomeNoFace))
			},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockLoginSvc{}
			tt.setupMock(mockSvc)

			app := createTestApp()
			handler := NewLoginHandler(mockSvc, testLogger())
			app.Post("/v1/login", handler.Login)

			body, contentType, err := createMultipartRequest(tt.subjectID, tt.imageContent, tt.contentType)
			assert.NoError(t, err)

			req := httptest.NewRequest("POST", "/v1/login", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockSvc.AssertExpectations(t)
		})
	}
}

func TestLoginHandler_DeleteTemplate(t *testing.T) {
	tests := []struct {
		name           string
		subjectID      string
		setupMock      func(*MockLoginSvc)
		expectedStatus int
	}{
		{
			name:      "deletes the template",
			subjectID: "user_001",
			setupMock: func(m *MockLoginSvc) {
				m.On("DeleteTemplate", mock.Anything, "user_001").Return(nil)
			},
			expectedStatus: 204,
		},
		{
			name:      "nothing stored",
			subjectID: "ghost",
			setupMock: func(m *MockLoginSvc) {
				m.On("DeleteTemplate", mock.Anything, "ghost").Return(domain.ErrTemplateNotFound)
			},
			expectedStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockLoginSvc{}
			tt.setupMock(mockSvc)

			app := createTestApp()
			handler := NewLoginHandler(mockSvc, testLogger())
			app.Delete("/v1/templates/:subject_id", handler.DeleteTemplate)

			req := httptest.NewRequest("DELETE", "/v1/templates/"+tt.subjectID, nil)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			mockSvc.AssertExpectations(t)
		})
	}
}
