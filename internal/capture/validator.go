// Package capture validates a single submitted frame before it can enter the
// enrollment sequence or a login attempt. Validation is a pure function of the
// frame dimensions and the provider's detection output: no I/O, safe to call
// from any number of concurrent requests.
package capture

import (
	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/provider"
)

// Config holds the validation thresholds. Values are deployment-tunable
// heuristics, not derived constants.
type Config struct {
	// MinFaceRatio / MaxFaceRatio bound faceHeight/frameHeight and
	// faceWidth/frameWidth. Too small means a face presented at distance
	// (printed photo held away), too large means a reproduction filling the
	// frame (screen held against the camera).
	MinFaceRatio float64
	MaxFaceRatio float64

	// RequiredLandmarks must all be present on the detected face
	RequiredLandmarks []string
}

// DefaultConfig returns the standard operating thresholds
func DefaultConfig() Config {
	return Config{
		MinFaceRatio: 0.1,
		MaxFaceRatio: 0.9,
		RequiredLandmarks: []string{
			provider.LandmarkLeftEye,
			provider.LandmarkRightEye,
			provider.LandmarkNoseBridge,
		},
	}
}

// Validator applies the presence, feature-completeness and size-ratio gates
type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks the detection output for one frame and returns the first
// failing gate's outcome. Gates run in a fixed order: presence, features,
// size. On ACCEPTED the single detected face is returned.
func (v *Validator) Validate(frameWidth, frameHeight int, faces []provider.DetectedFace) (domain.CaptureOutcome, *provider.DetectedFace) {
	if len(faces) == 0 {
		return domain.OutcomeNoFace, nil
	}
	// More than one subject is ambiguous: reject rather than guess
	if len(faces) > 1 {
		return domain.OutcomeMultiFace, nil
	}

	face := faces[0]

	if !face.Landmarks.Has(v.cfg.RequiredLandmarks...) {
		return domain.OutcomeMissingFeatures, nil
	}

	if frameWidth <= 0 || frameHeight <= 0 {
		return domain.OutcomeBadSize, nil
	}

	heightRatio := face.BoundingBox.Height() / float64(frameHeight)
	widthRatio := face.BoundingBox.Width() / float64(frameWidth)

	if heightRatio < v.cfg.MinFaceRatio || heightRatio > v.cfg.MaxFaceRatio ||
		widthRatio < v.cfg.MinFaceRatio || widthRatio > v.cfg.MaxFaceRatio {
		return domain.OutcomeBadSize, nil
	}

	return domain.OutcomeAccepted, &face
}
