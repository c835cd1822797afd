package sequence

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// State of one enrollment capture sequence
type State string

const (
	StateAwaitingCenter State = "AWAITING_CENTER"
	StateAwaitingLeft   State = "AWAITING_LEFT"
	StateAwaitingRight  State = "AWAITING_RIGHT"
	StateComplete       State = "COMPLETE"
	StateFailed         State = "FAILED"
)

// Terminal reports whether the sequence can accept further submissions
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// ExpectedPose returns the pose a submission is evaluated against in this
// state. Terminal states expect nothing.
func (s State) ExpectedPose() (domain.Pose, bool) {
	switch s {
	case StateAwaitingCenter:
		return domain.PoseCenter, true
	case StateAwaitingLeft:
		return domain.PoseLeft, true
	case StateAwaitingRight:
		return domain.PoseRight, true
	default:
		return "", false
	}
}

// stateForPosition maps a sequence position to its awaiting state; positions
// past the last pose complete the sequence.
func stateForPosition(position int) State {
	switch position {
	case 0:
		return StateAwaitingCenter
	case 1:
		return StateAwaitingLeft
	case 2:
		return StateAwaitingRight
	default:
		return StateComplete
	}
}

// Session is the in-memory state of one enrollment attempt. It exists only
// for the duration of the attempt and is discarded on completion or
// abandonment, never persisted.
//
// A session serializes its own submissions with an internal mutex; distinct
// sessions never share state and may be driven concurrently.
type Session struct {
	ID        uuid.UUID
	SubjectID string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu         sync.Mutex
	state      State
	failReason string
	attempts   []domain.CaptureAttempt
	embeddings [][]float64
}

// NewSession starts a fresh sequence awaiting the center pose
func NewSession(subjectID string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		state:     StateAwaitingCenter,
	}
}

// State returns the current sequence state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FailReason returns why the sequence entered StateFailed, empty otherwise
func (s *Session) FailReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReason
}

// Expired reports whether the session passed its deadline
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Attempts returns a copy of every capture attempt so far
func (s *Session) Attempts() []domain.CaptureAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CaptureAttempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
