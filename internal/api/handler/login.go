package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// LoginSvc interface for the service
type LoginSvc interface {
	Login(ctx context.Context, subjectID string, imageBytes []byte) (*domain.LoginAttempt, error)
	DeleteTemplate(ctx context.Context, subjectID string) error
}

// LoginHandler handles verification requests
type LoginHandler struct {
	service LoginSvc
	logger  *slog.Logger
}

// NewLoginHandler creates a new LoginHandler instance
func NewLoginHandler(service LoginSvc, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		service: service,
		logger:  logger,
	}
}

// LoginResponse response for the login endpoint
type LoginResponse struct {
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
	LatencyMs  int64   `json:"latency_ms"`
}

// Login POST /v1/login - verify one probe image against the stored template
func (h *LoginHandler) Login(c *fiber.Ctx) error {
	// 1. Extract subject_id from form
	subjectID := strings.TrimSpace(c.FormValue("subject_id"))
	if subjectID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("subject_id is required"))
	}

	// 2. Extract and validate image
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// 3. Call service to decide
	attempt, err := h.service.Login(c.Context(), subjectID, imageBytes)
	if err != nil {
		return err
	}

	// 4. Return response
	return c.JSON(LoginResponse{
		Verified:   attempt.Verified,
		Confidence: attempt.Confidence,
		Distance:   attempt.Distance,
		LatencyMs:  attempt.LatencyMs,
	})
}

// DeleteTemplate DELETE /v1/templates/:subject_id - delete stored template (LGPD)
func (h *LoginHandler) DeleteTemplate(c *fiber.Ctx) error {
	subjectID := strings.TrimSpace(c.Params("subject_id"))
	if subjectID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("subject_id is required"))
	}

	if err := h.service.DeleteTemplate(c.Context(), subjectID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
