package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/veriface-labs/poseguard/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceProvider using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

var _ provider.FaceProvider = (*Provider)(nil)

// DetectFaces detects faces in the image via /represent and maps the facial
// areas and eye landmarks into the provider contract
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.FacialArea
		faceArea := float64(area.W * area.H)

		faces = append(faces, provider.DetectedFace{
			BoundingBox: boundingBox(area),
			Landmarks:   landmarks(area),
			Confidence:  calculateConfidence(faceArea),
		})
	}

	return faces, nil
}

// EncodeFace extracts the embedding of the face matching the requested region.
// DeepFace recomputes detection on every /represent call, so the result whose
// facial area sits closest to the requested box is selected.
func (p *Provider) EncodeFace(ctx context.Context, image []byte, box provider.BoundingBox) ([]float64, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	best := resp.Results[0]
	bestDist := centerDistance(boundingBox(best.FacialArea), box)
	for _, result := range resp.Results[1:] {
		if d := centerDistance(boundingBox(result.FacialArea), box); d < bestDist {
			best = result
			bestDist = d
		}
	}

	if len(best.Embedding) == 0 {
		return nil, ErrNoFaceInResponse
	}

	return best.Embedding, nil
}

func boundingBox(area FacialArea) provider.BoundingBox {
	return provider.BoundingBox{
		Top:    float64(area.Y),
		Bottom: float64(area.Y + area.H),
		Left:   float64(area.X),
		Right:  float64(area.X + area.W),
	}
}

// landmarks maps the detector's eye positions into the provider contract.
// retinaface reports only the eyes; the nose bridge is approximated from the
// facial-area geometry, which is accurate enough for yaw banding.
func landmarks(area FacialArea) provider.LandmarkSet {
	set := provider.LandmarkSet{}

	if len(area.LeftEye) == 2 {
		set[provider.LandmarkLeftEye] = []provider.Point{{X: area.LeftEye[0], Y: area.LeftEye[1]}}
	}
	if len(area.RightEye) == 2 {
		set[provider.LandmarkRightEye] = []provider.Point{{X: area.RightEye[0], Y: area.RightEye[1]}}
	}
	if area.W > 0 && area.H > 0 {
		set[provider.LandmarkNoseBridge] = []provider.Point{{
			X: float64(area.X) + float64(area.W)/2,
			Y: float64(area.Y) + float64(area.H)*0.55,
		}}
	}

	return set
}

// centerDistance between two boxes' centers, used to pick the detection that
// corresponds to the caller's region
func centerDistance(a, b provider.BoundingBox) float64 {
	ax := (a.Left + a.Right) / 2
	ay := (a.Top + a.Bottom) / 2
	bx := (b.Left + b.Right) / 2
	by := (b.Top + b.Bottom) / 2
	return math.Hypot(ax-bx, ay-by)
}

// calculateConfidence estimates confidence based on face area
// DeepFace doesn't return confidence, so we estimate based on face size
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
