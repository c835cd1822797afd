package domain

import (
	"time"

	"github.com/google/uuid"
)

// BiometricTemplate holds the three pose embeddings fused from one successful
// enrollment sequence. A template is owned by exactly one subject and is
// immutable after creation; re-enrollment replaces the whole template.
type BiometricTemplate struct {
	ID         uuid.UUID   `json:"id"`
	SubjectID  string      `json:"subject_id"`
	Embeddings [][]float64 `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Complete reports whether the template carries one embedding per required pose
func (t *BiometricTemplate) Complete() bool {
	if t == nil || len(t.Embeddings) != len(PoseSequence) {
		return false
	}
	for _, emb := range t.Embeddings {
		if len(emb) == 0 {
			return false
		}
	}
	return true
}

// MatchResult is the decision produced for one login probe
type MatchResult struct {
	IsMatch    bool    `json:"is_match"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// LoginAttempt is the audit record of one login decision
type LoginAttempt struct {
	ID         uuid.UUID  `json:"id"`
	SubjectID  string     `json:"subject_id"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Verified   bool       `json:"verified"`
	Distance   float64    `json:"distance"`
	Confidence float64    `json:"confidence"`
	LatencyMs  int64      `json:"latency_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
