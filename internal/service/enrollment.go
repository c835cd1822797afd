package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriface-labs/poseguard/internal/audit"
	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/repository"
	"github.com/veriface-labs/poseguard/internal/sequence"
)

// sweepInterval is how often expired enrollment sessions are collected
const sweepInterval = time.Minute

// EnrollmentService owns the in-flight enrollment sessions and persists the
// fused template once a sequence completes. Sessions live only in process
// memory; an abandoned or expired session leaves no trace.
type EnrollmentService struct {
	controller *sequence.Controller
	templates  repository.TemplateRepositoryInterface
	audit      audit.Logger
	logger     *slog.Logger
	sessionTTL time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sequence.Session

	// subjectLocks serializes template writes per subject so that two
	// concurrent enrollments for the same identity cannot interleave their
	// template replacement (last writer wins, but writes are whole)
	subjectLocks sync.Map
}

func NewEnrollmentService(
	controller *sequence.Controller,
	templates repository.TemplateRepositoryInterface,
	auditLogger audit.Logger,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *EnrollmentService {
	return &EnrollmentService{
		controller: controller,
		templates:  templates,
		audit:      auditLogger,
		logger:     logger,
		sessionTTL: sessionTTL,
		sessions:   make(map[uuid.UUID]*sequence.Session),
	}
}

// Start opens a new enrollment sequence for a subject, awaiting the center pose
func (s *EnrollmentService) Start(subjectID string) (*sequence.Session, error) {
	if subjectID == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("subject_id is required"))
	}

	sess := sequence.NewSession(subjectID, s.sessionTTL)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("enrollment session started",
		slog.String("session_id", sess.ID.String()),
		slog.String("subject_id", subjectID),
	)

	return sess, nil
}

// Get returns an active (non-expired) session
func (s *EnrollmentService) Get(sessionID uuid.UUID) (*sequence.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Expired() {
		s.remove(sessionID)
		return nil, domain.ErrSessionNotFound
	}

	return sess, nil
}

// Submit runs one capture through the pose sequence. When the submission
// completes the sequence, the fused template is persisted and the session is
// consumed; when it fails the sequence, the session is consumed without side
// effects and the caller must restart from the center pose.
func (s *EnrollmentService) Submit(ctx context.Context, sessionID uuid.UUID, image []byte) (*sequence.Result, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.controller.Submit(ctx, sess, image)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventCaptureSubmitted,
		SubjectID: sess.SubjectID,
		SessionID: sess.ID.String(),
		Success:   result.Outcome.Accepted(),
		Metadata: map[string]string{
			"pose":    string(result.Pose),
			"outcome": string(result.Outcome),
		},
	})

	switch result.State {
	case sequence.StateComplete:
		if err := s.persist(ctx, sess); err != nil {
			s.remove(sessionID)
			return nil, err
		}
		s.remove(sessionID)

	case sequence.StateFailed:
		s.remove(sessionID)
		_ = s.audit.Log(ctx, audit.Event{
			EventType: audit.EventEnrollmentFailed,
			SubjectID: sess.SubjectID,
			SessionID: sess.ID.String(),
			Error:     sess.FailReason(),
		})
	}

	return result, nil
}

// Abandon discards a session before completion, with no persisted side effect
func (s *EnrollmentService) Abandon(sessionID uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Run sweeps expired sessions until the context is cancelled
func (s *EnrollmentService) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *EnrollmentService) persist(ctx context.Context, sess *sequence.Session) error {
	template, err := sequence.Fuse(sess)
	if err != nil {
		return err
	}

	lock := s.subjectLock(sess.SubjectID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.templates.Replace(ctx, template); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventTemplateCreated,
		SubjectID: sess.SubjectID,
		SessionID: sess.ID.String(),
		Success:   true,
		Metadata: map[string]string{
			"template_id": template.ID.String(),
		},
	})

	s.logger.Info("biometric template stored",
		slog.String("subject_id", sess.SubjectID),
		slog.String("template_id", template.ID.String()),
	)

	return nil
}

func (s *EnrollmentService) subjectLock(subjectID string) *sync.Mutex {
	lock, _ := s.subjectLocks.LoadOrStore(subjectID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *EnrollmentService) remove(sessionID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *EnrollmentService) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.Expired() {
			delete(s.sessions, id)
		}
	}
}
