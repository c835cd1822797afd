package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// Auth creates an authentication middleware for the single deployment API
// key. The comparison runs over SHA-256 digests in constant time so neither
// key length nor prefix leaks through timing.
func Auth(apiKey string) fiber.Handler {
	expected := sha256.Sum256([]byte(apiKey))

	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return domain.ErrUnauthorized
		}

		got := sha256.Sum256([]byte(token))
		if subtle.ConstantTimeCompare(expected[:], got[:]) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
