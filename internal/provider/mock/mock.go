// Package mock implements provider.FaceProvider for tests and local
// development without a detection backend.
package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/provider"
)

const embeddingDimension = 512

// Provider returns a single frontal face per decodable image and generates
// deterministic embeddings from the image hash, so identical images always
// compare at distance zero.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

// DetectFaces simula detecção: uma face frontal centralizada no frame
func (p *Provider) DetectFaces(ctx context.Context, imageBytes []byte) ([]provider.DetectedFace, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	// Face occupies the middle 60% of the frame, eyes on the upper third
	box := provider.BoundingBox{
		Top:    0.2 * h,
		Bottom: 0.8 * h,
		Left:   0.2 * w,
		Right:  0.8 * w,
	}
	eyeY := box.Top + 0.3*box.Height()
	noseY := box.Top + 0.55*box.Height()
	midX := (box.Left + box.Right) / 2

	return []provider.DetectedFace{
		{
			BoundingBox: box,
			Confidence:  0.99,
			Landmarks: provider.LandmarkSet{
				provider.LandmarkLeftEye:    {{X: midX - 0.2*box.Width(), Y: eyeY}},
				provider.LandmarkRightEye:   {{X: midX + 0.2*box.Width(), Y: eyeY}},
				provider.LandmarkNoseBridge: {{X: midX, Y: noseY}},
			},
		},
	}, nil
}

// EncodeFace gera embedding determinístico baseado no hash da imagem
func (p *Provider) EncodeFace(ctx context.Context, imageBytes []byte, box provider.BoundingBox) ([]float64, error) {
	if len(imageBytes) == 0 {
		return nil, domain.ErrInvalidImage
	}
	return generateEmbedding(imageBytes), nil
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(imageBytes []byte) []float64 {
	hash := sha256.Sum256(imageBytes)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceProvider = (*Provider)(nil)
