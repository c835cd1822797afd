package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/veriface-labs/poseguard/internal/audit"
	"github.com/veriface-labs/poseguard/internal/capture"
	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/liveness"
	"github.com/veriface-labs/poseguard/internal/match"
	"github.com/veriface-labs/poseguard/internal/provider"
	"github.com/veriface-labs/poseguard/internal/repository"
)

// LoginService decides whether a fresh capture belongs to the subject's
// stored template. The probe goes through the same presence, feature and
// liveness gates as enrollment captures before it is encoded and matched.
type LoginService struct {
	provider        provider.FaceProvider
	validator       *capture.Validator
	liveness        *liveness.Estimator
	engine          *match.Engine
	templates       repository.TemplateRepositoryInterface
	attempts        repository.LoginAttemptRepositoryInterface
	audit           audit.Logger
	logger          *slog.Logger
	providerTimeout time.Duration
}

func NewLoginService(
	faceProvider provider.FaceProvider,
	validator *capture.Validator,
	estimator *liveness.Estimator,
	engine *match.Engine,
	templates repository.TemplateRepositoryInterface,
	attempts repository.LoginAttemptRepositoryInterface,
	auditLogger audit.Logger,
	logger *slog.Logger,
	providerTimeout time.Duration,
) *LoginService {
	return &LoginService{
		provider:        faceProvider,
		validator:       validator,
		liveness:        estimator,
		engine:          engine,
		templates:       templates,
		attempts:        attempts,
		audit:           auditLogger,
		logger:          logger,
		providerTimeout: providerTimeout,
	}
}

// Login verifies one probe image against the subject's stored template
func (s *LoginService) Login(ctx context.Context, subjectID string, imageBytes []byte) (*domain.LoginAttempt, error) {
	if subjectID == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("subject_id is required"))
	}

	start := time.Now()

	template, err := s.templates.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	frame := img.Bounds()

	detectCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	faces, err := s.provider.DetectFaces(detectCtx, imageBytes)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.CaptureError(domain.OutcomeNoFace)
		}
		return nil, domain.ErrProviderUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}

	outcome, face := s.validator.Validate(frame.Dx(), frame.Dy(), faces)
	if !outcome.Accepted() {
		return nil, domain.CaptureError(outcome)
	}

	scores, live := s.liveness.Estimate(img, &face.BoundingBox)
	if !live {
		s.logger.Debug("login liveness rejected",
			slog.String("subject_id", subjectID),
			slog.Float64("texture_variance", scores.TextureVariance),
			slog.Float64("edge_density", scores.EdgeDensity),
		)
		return nil, domain.CaptureError(domain.OutcomeNotLive)
	}

	encodeCtx, cancelEncode := context.WithTimeout(ctx, s.providerTimeout)
	defer cancelEncode()

	probe, err := s.provider.EncodeFace(encodeCtx, imageBytes, face.BoundingBox)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.CaptureError(domain.OutcomeNoFace)
		}
		return nil, domain.ErrProviderUnavailable.WithError(fmt.Errorf("encode probe: %w", err))
	}

	result, err := s.engine.Match(probe, template)
	if err != nil {
		return nil, err
	}

	attempt := &domain.LoginAttempt{
		SubjectID:  subjectID,
		TemplateID: &template.ID,
		Verified:   result.IsMatch,
		Distance:   result.Distance,
		Confidence: result.Confidence,
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	// Audit trail - error is intentionally not returned, the decision was
	// already made
	_ = s.attempts.Create(ctx, attempt)

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventLoginDecided,
		SubjectID: subjectID,
		Success:   result.IsMatch,
		Metadata: map[string]string{
			"distance":   fmt.Sprintf("%.4f", result.Distance),
			"confidence": fmt.Sprintf("%.4f", result.Confidence),
		},
	})

	return attempt, nil
}

// DeleteTemplate removes the subject's stored template
func (s *LoginService) DeleteTemplate(ctx context.Context, subjectID string) error {
	if err := s.templates.Delete(ctx, subjectID); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventTemplateDeleted,
		SubjectID: subjectID,
		Success:   true,
	})

	return nil
}
