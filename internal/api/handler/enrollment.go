package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veriface-labs/poseguard/internal/domain"
	"github.com/veriface-labs/poseguard/internal/sequence"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// EnrollmentSvc interface for the service
type EnrollmentSvc interface {
	Start(subjectID string) (*sequence.Session, error)
	Get(sessionID uuid.UUID) (*sequence.Session, error)
	Submit(ctx context.Context, sessionID uuid.UUID, image []byte) (*sequence.Result, error)
	Abandon(sessionID uuid.UUID) error
}

// EnrollmentHandler handles enrollment sequence requests
type EnrollmentHandler struct {
	service EnrollmentSvc
	logger  *slog.Logger
}

// NewEnrollmentHandler creates a new EnrollmentHandler instance
func NewEnrollmentHandler(service EnrollmentSvc, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger,
	}
}

// StartResponse response for the start endpoint
type StartResponse struct {
	SessionID    string `json:"session_id"`
	SubjectID    string `json:"subject_id"`
	ExpectedPose string `json:"expected_pose"`
	ExpiresAt    string `json:"expires_at"`
}

// CaptureResponse response for the capture endpoint
type CaptureResponse struct {
	Pose         string `json:"pose"`
	Outcome      string `json:"outcome"`
	State        string `json:"state"`
	ExpectedPose string `json:"expected_pose,omitempty"`
	Guidance     string `json:"guidance,omitempty"`
}

// Start POST /v1/enrollments - open a new enrollment sequence
func (h *EnrollmentHandler) Start(c *fiber.Ctx) error {
	// 1. Extract subject_id from form
	subjectID := strings.TrimSpace(c.FormValue("subject_id"))
	if subjectID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("subject_id is required"))
	}

	// 2. Open the session
	sess, err := h.service.Start(subjectID)
	if err != nil {
		return err
	}

	expected, _ := sess.State().ExpectedPose()

	// 3. Return response
	return c.Status(fiber.StatusCreated).JSON(StartResponse{
		SessionID:    sess.ID.String(),
		SubjectID:    sess.SubjectID,
		ExpectedPose: string(expected),
		ExpiresAt:    sess.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Capture POST /v1/enrollments/:id/captures - submit one pose capture
func (h *EnrollmentHandler) Capture(c *fiber.Ctx) error {
	// 1. Extract session id from URL
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	// 2. Extract and validate image
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("submit capture: %w", err)
	}

	// 3. Run the capture through the sequence
	result, err := h.service.Submit(c.Context(), sessionID, imageBytes)
	if err != nil {
		return err
	}

	// 4. Return response
	return c.JSON(CaptureResponse{
		Pose:         string(result.Pose),
		Outcome:      string(result.Outcome),
		State:        string(result.State),
		ExpectedPose: string(result.Expected),
		Guidance:     result.Guidance,
	})
}

// Abandon DELETE /v1/enrollments/:id - discard an in-flight sequence
func (h *EnrollmentHandler) Abandon(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	if err := h.service.Abandon(sessionID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params("id"))
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(errors.New("invalid session id"))
	}
	return sessionID, nil
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	// 2. Validate size
	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 3. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
