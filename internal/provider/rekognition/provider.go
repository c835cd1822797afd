// Package rekognition implements face detection through AWS Rekognition.
// DetectFaces returns bounding boxes, eye/nose landmarks and the native head
// pose; Rekognition never exposes embedding vectors, so EncodeFace fails with
// ErrEmbeddingNotSupported and deployments compose this provider with an
// encoding-capable one (see the provider factory).
package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/veriface-labs/poseguard/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements the detection half of provider.FaceProvider using AWS
// Rekognition DetectFaces
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.FaceProvider interface at compile time
var _ provider.FaceProvider = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return &Provider{client: client}, nil
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(imageBytes []byte) error {
	if len(imageBytes) == 0 {
		return ErrInvalidImage
	}
	if len(imageBytes) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(imageBytes), minImageSize)
	}
	if len(imageBytes) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(imageBytes), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces using the Rekognition DetectFaces API with full
// attributes and converts the relative coordinates into frame pixels
func (p *Provider) DetectFaces(ctx context.Context, imageBytes []byte) ([]provider.DetectedFace, error) {
	if err := validateImage(imageBytes); err != nil {
		return nil, err
	}

	// Rekognition reports coordinates as frame ratios; the frame dimensions
	// come from the image header
	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	frameW := float64(cfgImg.Width)
	frameH := float64(cfgImg.Height)

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: imageBytes,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", translateAPIError(err))
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		face := provider.DetectedFace{
			Landmarks: convertLandmarks(detail.Landmarks, frameW, frameH),
		}

		if detail.BoundingBox != nil {
			face.BoundingBox = provider.BoundingBox{
				Top:    float64(aws.ToFloat32(detail.BoundingBox.Top)) * frameH,
				Left:   float64(aws.ToFloat32(detail.BoundingBox.Left)) * frameW,
				Bottom: (float64(aws.ToFloat32(detail.BoundingBox.Top)) + float64(aws.ToFloat32(detail.BoundingBox.Height))) * frameH,
				Right:  (float64(aws.ToFloat32(detail.BoundingBox.Left)) + float64(aws.ToFloat32(detail.BoundingBox.Width))) * frameW,
			}
		}

		if detail.Confidence != nil {
			face.Confidence = float64(*detail.Confidence) / 100.0
		}

		if detail.Pose != nil {
			face.HeadPose = &provider.HeadPose{
				Pitch: float64(aws.ToFloat32(detail.Pose.Pitch)),
				Roll:  float64(aws.ToFloat32(detail.Pose.Roll)),
				Yaw:   float64(aws.ToFloat32(detail.Pose.Yaw)),
			}
		}

		faces = append(faces, face)
	}

	return faces, nil
}

// EncodeFace is not supported: Rekognition keeps embeddings internal to its
// collections and never returns the vectors
func (p *Provider) EncodeFace(ctx context.Context, imageBytes []byte, box provider.BoundingBox) ([]float64, error) {
	return nil, ErrEmbeddingNotSupported
}

// convertLandmarks maps Rekognition landmark types onto the names the core
// pipeline requires
func convertLandmarks(landmarks []types.Landmark, frameW, frameH float64) provider.LandmarkSet {
	set := provider.LandmarkSet{}

	for _, lm := range landmarks {
		var name string
		switch lm.Type {
		case types.LandmarkTypeEyeLeft:
			name = provider.LandmarkLeftEye
		case types.LandmarkTypeEyeRight:
			name = provider.LandmarkRightEye
		case types.LandmarkTypeNose:
			name = provider.LandmarkNoseBridge
		default:
			continue
		}

		set[name] = append(set[name], provider.Point{
			X: float64(aws.ToFloat32(lm.X)) * frameW,
			Y: float64(aws.ToFloat32(lm.Y)) * frameH,
		})
	}

	return set
}
