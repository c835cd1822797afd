package sequence

import (
	"time"

	"github.com/google/uuid"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// Fuse turns a completed sequence into a biometric template: the three
// accepted embeddings in pose order, stored exactly as the provider produced
// them. Calling Fuse on anything but a COMPLETE session is a contract
// violation.
func Fuse(sess *Session) (*domain.BiometricTemplate, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateComplete {
		return nil, domain.ErrVerificationFailed
	}

	embeddings := make([][]float64, len(sess.embeddings))
	for i, emb := range sess.embeddings {
		copied := make([]float64, len(emb))
		copy(copied, emb)
		embeddings[i] = copied
	}

	return &domain.BiometricTemplate{
		ID:         uuid.New(),
		SubjectID:  sess.SubjectID,
		Embeddings: embeddings,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
