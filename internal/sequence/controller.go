// Package sequence drives the ordered three-pose enrollment capture:
// center, then left, then right. Each submission is gated by the capture
// validator, the liveness estimator and a yaw check before its embedding is
// recorded; a rejection never advances the sequence and the caller may simply
// resubmit.
package sequence

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

	"github.com/veriface-labs/poseguard/internal/capture"
	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/liveness"
	"github.com/veriface-labs/poseguard/internal/match"
	"github.com/veriface-labs/poseguard/internal/provider"
)

// FailReasonIdentityMismatch marks a completed sequence whose three
// embeddings do not belong to a single identity.
const FailReasonIdentityMismatch = "pose identity mismatch"

// Config holds the sequence tuning knobs
type Config struct {
	// CenterMaxAbsYaw bounds |yaw| for the frontal pose (degrees)
	CenterMaxAbsYaw float64

	// TurnTargetYaw is the expected |yaw| for the left/right poses (degrees)
	TurnTargetYaw float64

	// TurnBand is the tolerance halfwidth around TurnTargetYaw (degrees)
	TurnBand float64

	// SamePersonThreshold is the maximum pairwise embedding distance for the
	// completion identity-consistency check
	SamePersonThreshold float64

	// ProviderTimeout bounds each detect/encode call. A timed-out provider
	// call is reported as a recoverable no-face rejection instead of hanging
	// the sequence.
	ProviderTimeout time.Duration
}

// DefaultConfig returns the standard operating points
func DefaultConfig() Config {
	return Config{
		CenterMaxAbsYaw:     15,
		TurnTargetYaw:       30,
		TurnBand:            15,
		SamePersonThreshold: 0.6,
		ProviderTimeout:     10 * time.Second,
	}
}

// BandFor returns the accepted yaw interval for a pose
func (c Config) BandFor(pose domain.Pose) AngleBand {
	switch pose {
	case domain.PoseLeft:
		return AngleBand{Min: -c.TurnTargetYaw - c.TurnBand, Max: -c.TurnTargetYaw + c.TurnBand}
	case domain.PoseRight:
		return AngleBand{Min: c.TurnTargetYaw - c.TurnBand, Max: c.TurnTargetYaw + c.TurnBand}
	default:
		return AngleBand{Min: -c.CenterMaxAbsYaw, Max: c.CenterMaxAbsYaw}
	}
}

// Result is the structured guidance emitted after every submission, consumed
// by whatever renders capture instructions to the user.
type Result struct {
	Pose     domain.Pose           `json:"pose"`
	Outcome  domain.CaptureOutcome `json:"outcome"`
	State    State                 `json:"state"`
	Expected domain.Pose           `json:"expected_pose,omitempty"`
	Guidance string                `json:"guidance"`
}

// Controller evaluates submissions against the current expected pose. The
// controller itself is stateless; all per-attempt state lives in the Session.
type Controller struct {
	provider  provider.FaceProvider
	validator *capture.Validator
	liveness  *liveness.Estimator
	cfg       Config
	logger    *slog.Logger
}

func NewController(
	faceProvider provider.FaceProvider,
	validator *capture.Validator,
	estimator *liveness.Estimator,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		provider:  faceProvider,
		validator: validator,
		liveness:  estimator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Submit evaluates one image against the session's current expected pose.
// Capture-quality rejections leave the state untouched and are reported in
// the Result, not as errors; errors are reserved for contract violations
// (finished session, undecodable image, provider failure).
func (c *Controller) Submit(ctx context.Context, sess *Session, imageBytes []byte) (*Result, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	pose, ok := sess.state.ExpectedPose()
	if !ok {
		return nil, domain.ErrSessionFinished
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	frame := img.Bounds()

	faces, err := c.detect(ctx, imageBytes)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// A slow provider must not hang the sequence: report the capture
			// as not usable and let the caller retry
			return c.reject(sess, pose, domain.OutcomeNoFace), nil
		}
		return nil, domain.ErrProviderUnavailable.WithError(err)
	}

	outcome, face := c.validator.Validate(frame.Dx(), frame.Dy(), faces)
	if !outcome.Accepted() {
		return c.reject(sess, pose, outcome), nil
	}

	scores, live := c.liveness.Estimate(img, &face.BoundingBox)
	if !live {
		c.logger.Debug("liveness rejected",
			slog.String("session_id", sess.ID.String()),
			slog.String("pose", string(pose)),
			slog.Float64("texture_variance", scores.TextureVariance),
			slog.Float64("edge_density", scores.EdgeDensity),
		)
		return c.reject(sess, pose, domain.OutcomeNotLive), nil
	}

	yaw, ok := EstimateYaw(*face)
	if !ok || !c.cfg.BandFor(pose).Contains(yaw) {
		c.logger.Debug("pose angle rejected",
			slog.String("session_id", sess.ID.String()),
			slog.String("pose", string(pose)),
			slog.Float64("yaw", yaw),
		)
		return c.reject(sess, pose, domain.OutcomeBadAngle), nil
	}

	embedding, err := c.encode(ctx, imageBytes, face.BoundingBox)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.reject(sess, pose, domain.OutcomeNoFace), nil
		}
		return nil, domain.ErrProviderUnavailable.WithError(err)
	}

	return c.accept(sess, pose, embedding), nil
}

func (c *Controller) detect(ctx context.Context, imageBytes []byte) ([]provider.DetectedFace, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
	defer cancel()
	faces, err := c.provider.DetectFaces(ctx, imageBytes)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return faces, nil
}

func (c *Controller) encode(ctx context.Context, imageBytes []byte, box provider.BoundingBox) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
	defer cancel()
	embedding, err := c.provider.EncodeFace(ctx, imageBytes, box)
	if err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}
	return embedding, nil
}

// reject records the attempt and leaves the state where it was
func (c *Controller) reject(sess *Session, pose domain.Pose, outcome domain.CaptureOutcome) *Result {
	sess.attempts = append(sess.attempts, domain.CaptureAttempt{Pose: pose, Outcome: outcome})
	return c.result(sess, pose, outcome)
}

// accept records the embedding and advances the sequence; on reaching the
// last pose the three embeddings must agree on a single identity or the
// whole sequence fails. A partial template is never produced.
func (c *Controller) accept(sess *Session, pose domain.Pose, embedding []float64) *Result {
	sess.attempts = append(sess.attempts, domain.CaptureAttempt{Pose: pose, Outcome: domain.OutcomeAccepted})
	sess.embeddings = append(sess.embeddings, embedding)
	sess.state = stateForPosition(pose.Position() + 1)

	if sess.state == StateComplete {
		if !match.Consistent(sess.embeddings, c.cfg.SamePersonThreshold) {
			sess.state = StateFailed
			sess.failReason = FailReasonIdentityMismatch
			sess.embeddings = nil
			c.logger.Warn("enrollment sequence failed",
				slog.String("session_id", sess.ID.String()),
				slog.String("reason", FailReasonIdentityMismatch),
			)
		}
	}

	return c.result(sess, pose, domain.OutcomeAccepted)
}

func (c *Controller) result(sess *Session, pose domain.Pose, outcome domain.CaptureOutcome) *Result {
	res := &Result{
		Pose:     pose,
		Outcome:  outcome,
		State:    sess.state,
		Guidance: outcome.GuidanceMessage(),
	}
	if next, ok := sess.state.ExpectedPose(); ok {
		res.Expected = next
	}
	return res
}
