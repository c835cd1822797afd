// Package match implements the distance-based accept/reject decision for a
// login probe against a stored biometric template.
package match

import (
	"math"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// DefaultTolerance is the demonstrated operating point. Lower is stricter:
// fewer false accepts, more false rejects.
const DefaultTolerance = 0.5

// Engine computes match decisions. The engine is stateless and safe for
// concurrent use.
type Engine struct {
	tolerance float64
}

func NewEngine(tolerance float64) *Engine {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{tolerance: tolerance}
}

// Tolerance returns the configured decision threshold
func (e *Engine) Tolerance() float64 {
	return e.tolerance
}

// Match compares a probe embedding against every embedding in the template and
// decides on the minimum distance (best-pose match). Confidence decreases
// monotonically with distance and is bounded to [0, 1].
func (e *Engine) Match(probe []float64, template *domain.BiometricTemplate) (*domain.MatchResult, error) {
	return e.MatchWithTolerance(probe, template, e.tolerance)
}

// MatchWithTolerance is Match with a caller-supplied threshold, used when the
// deployment tunes tolerance per risk profile.
func (e *Engine) MatchWithTolerance(probe []float64, template *domain.BiometricTemplate, tolerance float64) (*domain.MatchResult, error) {
	if len(probe) == 0 {
		return nil, domain.ErrNoProbe
	}
	if !template.Complete() {
		return nil, domain.ErrInvalidTemplate
	}
	if tolerance <= 0 {
		tolerance = e.tolerance
	}

	best := math.Inf(1)
	for _, stored := range template.Embeddings {
		if d := EuclideanDistance(probe, stored); d < best {
			best = d
		}
	}

	return &domain.MatchResult{
		IsMatch:    best <= tolerance,
		Distance:   best,
		Confidence: confidence(best, tolerance),
	}, nil
}

// Consistent reports whether a set of embeddings plausibly belongs to a single
// identity: every pairwise distance must stay below the same-person threshold.
// The enrollment sequence uses this before fusing pose captures.
func Consistent(embeddings [][]float64, threshold float64) bool {
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			if EuclideanDistance(embeddings[i], embeddings[j]) > threshold {
				return false
			}
		}
	}
	return true
}

// EuclideanDistance between two embeddings. Mismatched or empty vectors yield
// +Inf so they can never satisfy a tolerance.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// confidence maps distance to [0, 1]: 1 at distance 0, 0 at or beyond the
// tolerance. The exact shape is a design choice; monotonicity and bounds are
// the contract.
func confidence(distance, tolerance float64) float64 {
	if tolerance <= 0 {
		return 0
	}
	c := 1 - distance/tolerance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
