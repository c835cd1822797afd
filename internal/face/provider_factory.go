// Package face selects and assembles the configured FaceProvider.
package face

import (
	"context"
	"fmt"

	"github.com/veriface-labs/poseguard/internal/config"
	"github.com/veriface-labs/poseguard/internal/provider"
	"github.com/veriface-labs/poseguard/internal/provider/deepface"
	"github.com/veriface-labs/poseguard/internal/provider/mock"
	"github.com/veriface-labs/poseguard/internal/provider/rekognition"
)

// ProviderType defines supported face analysis provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace provider (local sidecar, dev/default)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition uses AWS Rekognition for detection and head
	// pose, composed with DeepFace for embeddings (Rekognition does not
	// expose vectors)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process provider for tests
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceProvider creates a FaceProvider instance based on configuration
//
// Environment variables:
//   - FACE_PROVIDER: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via AWS SDK credential chain
func NewFaceProvider(ctx context.Context, cfg *config.Config) (provider.FaceProvider, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeRekognition:
		detector, err := rekognition.NewProvider(ctx, rekognition.Config{
			Region: cfg.AWSRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return &compositeProvider{
			detector: detector,
			encoder:  createDeepFaceProvider(cfg),
		}, nil

	case ProviderTypeMock:
		return mock.New(), nil

	case ProviderTypeDeepFace, "":
		// Default to DeepFace for dev/test environments
		return createDeepFaceProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	return deepface.NewProvider(deepfaceConfig)
}

// compositeProvider routes detection and encoding to different backends
type compositeProvider struct {
	detector provider.FaceProvider
	encoder  provider.FaceProvider
}

var _ provider.FaceProvider = (*compositeProvider)(nil)

func (c *compositeProvider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	return c.detector.DetectFaces(ctx, image)
}

func (c *compositeProvider) EncodeFace(ctx context.Context, image []byte, box provider.BoundingBox) ([]float64, error) {
	return c.encoder.EncodeFace(ctx, image, box)
}
