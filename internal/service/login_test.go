package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veriface-labs/poseguard/internal/capture"
	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/liveness"
	"github.com/veriface-labs/poseguard/internal/match"
	"github.com/veriface-labs/poseguard/internal/provider"
)

func newLoginService(p provider.FaceProvider, templates *MockTemplateRepository, attempts *MockLoginAttemptRepository) *LoginService {
	return NewLoginService(
		p,
		capture.NewValidator(capture.DefaultConfig()),
		liveness.NewEstimator(liveness.DefaultConfig()),
		match.NewEngine(match.DefaultTolerance),
		templates,
		attempts,
		testAudit(),
		discardLogger(),
		10*time.Second,
	)
}

func storedTemplate(embeddings ...[]float64) *domain.BiometricTemplate {
	return &domain.BiometricTemplate{
		ID:         uuid.New(),
		SubjectID:  "subject-1",
		Embeddings: embeddings,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestLoginService_Login_Verified(t *testing.T) {
	probe := sameEmbedding()
	template := storedTemplate(probe, farEmbedding(), farEmbedding())

	p := &MockFaceProvider{}
	p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{poseFace(0)}, nil)
	p.On("EncodeFace", mock.Anything, mock.Anything, mock.Anything).Return(probe, nil)

	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(template, nil)

	attempts := &MockLoginAttemptRepository{}
	attempts.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.LoginAttempt) bool {
		return a.SubjectID == "subject-1" && a.Verified
	})).Return(nil)

	svc := newLoginService(p, templates, attempts)

	attempt, err := svc.Login(context.Background(), "subject-1", texturedPNG(t))
	require.NoError(t, err)

	assert.True(t, attempt.Verified)
	assert.Zero(t, attempt.Distance)
	assert.Equal(t, 1.0, attempt.Confidence)
	assert.Equal(t, template.ID, *attempt.TemplateID)

	attempts.AssertExpectations(t)
	p.AssertExpectations(t)
}

func TestLoginService_Login_NotVerified(t *testing.T) {
	template := storedTemplate(farEmbedding(), farEmbedding(), farEmbedding())

	p := &MockFaceProvider{}
	p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{poseFace(0)}, nil)
	p.On("EncodeFace", mock.Anything, mock.Anything, mock.Anything).Return(sameEmbedding(), nil)

	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(template, nil)

	attempts := &MockLoginAttemptRepository{}
	attempts.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newLoginService(p, templates, attempts)

	attempt, err := svc.Login(context.Background(), "subject-1", texturedPNG(t))
	require.NoError(t, err)

	// An impostor probe is a decision, not an error
	assert.False(t, attempt.Verified)
	assert.Zero(t, attempt.Confidence)
	assert.Greater(t, attempt.Distance, match.DefaultTolerance)
}

func TestLoginService_Login_TemplateNotFound(t *testing.T) {
	p := &MockFaceProvider{}
	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "ghost").Return(nil, domain.ErrTemplateNotFound)

	svc := newLoginService(p, templates, &MockLoginAttemptRepository{})

	_, err := svc.Login(context.Background(), "ghost", texturedPNG(t))
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	// The provider must not be called when there is nothing to match against
	p.AssertNotCalled(t, "DetectFaces", mock.Anything, mock.Anything)
}

func TestLoginService_Login_RequiresSubject(t *testing.T) {
	svc := newLoginService(&MockFaceProvider{}, &MockTemplateRepository{}, &MockLoginAttemptRepository{})

	_, err := svc.Login(context.Background(), "", texturedPNG(t))
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestLoginService_Login_InvalidImage(t *testing.T) {
	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(storedTemplate(sameEmbedding(), sameEmbedding(), sameEmbedding()), nil)

	svc := newLoginService(&MockFaceProvider{}, templates, &MockLoginAttemptRepository{})

	_, err := svc.Login(context.Background(), "subject-1", []byte("junk"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestLoginService_Login_CaptureRejections(t *testing.T) {
	tests := []struct {
		name    string
		faces   []provider.DetectedFace
		wantErr *domain.AppError
	}{
		{
			name:    "no face",
			faces:   []provider.DetectedFace{},
			wantErr: domain.CaptureError(domain.OutcomeNoFace),
		},
		{
			name:    "multiple faces",
			faces:   []provider.DetectedFace{poseFace(0), poseFace(0)},
			wantErr: domain.CaptureError(domain.OutcomeMultiFace),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockFaceProvider{}
			p.On("DetectFaces", mock.Anything, mock.Anything).Return(tt.faces, nil)

			templates := &MockTemplateRepository{}
			templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(storedTemplate(sameEmbedding(), sameEmbedding(), sameEmbedding()), nil)

			svc := newLoginService(p, templates, &MockLoginAttemptRepository{})

			_, err := svc.Login(context.Background(), "subject-1", texturedPNG(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoginService_Login_ProviderTimeout(t *testing.T) {
	p := &MockFaceProvider{}
	p.On("DetectFaces", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(storedTemplate(sameEmbedding(), sameEmbedding(), sameEmbedding()), nil)

	svc := newLoginService(p, templates, &MockLoginAttemptRepository{})

	_, err := svc.Login(context.Background(), "subject-1", texturedPNG(t))
	assert.ErrorIs(t, err, domain.CaptureError(domain.OutcomeNoFace))
}

func TestLoginService_Login_AuditFailureDoesNotBlockDecision(t *testing.T) {
	probe := sameEmbedding()

	p := &MockFaceProvider{}
	p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{poseFace(0)}, nil)
	p.On("EncodeFace", mock.Anything, mock.Anything, mock.Anything).Return(probe, nil)

	templates := &MockTemplateRepository{}
	templates.On("GetBySubjectID", mock.Anything, "subject-1").Return(storedTemplate(probe, probe, probe), nil)

	attempts := &MockLoginAttemptRepository{}
	attempts.On("Create", mock.Anything, mock.Anything).Return(domain.ErrInternal)

	svc := newLoginService(p, templates, attempts)

	attempt, err := svc.Login(context.Background(), "subject-1", texturedPNG(t))
	require.NoError(t, err)
	assert.True(t, attempt.Verified)
}

func TestLoginService_DeleteTemplate(t *testing.T) {
	templates := &MockTemplateRepository{}
	templates.On("Delete", mock.Anything, "subject-1").Return(nil)
	templates.On("Delete", mock.Anything, "ghost").Return(domain.ErrTemplateNotFound)

	svc := newLoginService(&MockFaceProvider{}, templates, &MockLoginAttemptRepository{})

	assert.NoError(t, svc.DeleteTemplate(context.Background(), "subject-1"))
	assert.ErrorIs(t, svc.DeleteTemplate(context.Background(), "ghost"), domain.ErrTemplateNotFound)
}
