package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veriface-labs/poseguard/internal/domain"
)

type LoginAttemptRepository struct {
	pool PgxPool
}

func NewLoginAttemptRepository(pool PgxPool) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: pool}
}

func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO login_attempts (id, subject_id, template_id, verified, distance, confidence, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING created_at`,
		attempt.ID,
		attempt.SubjectID,
		attempt.TemplateID,
		attempt.Verified,
		attempt.Distance,
		attempt.Confidence,
		attempt.LatencyMs,
	).Scan(&attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("create login attempt: %w", err)
	}

	return nil
}
