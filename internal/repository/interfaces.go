package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veriface-labs/poseguard/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories depend on,
// satisfied by pgxmock in tests
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TemplateRepositoryInterface defines operations for biometric template storage
type TemplateRepositoryInterface interface {
	Replace(ctx context.Context, template *domain.BiometricTemplate) error
	GetBySubjectID(ctx context.Context, subjectID string) (*domain.BiometricTemplate, error)
	Delete(ctx context.Context, subjectID string) error
}

// LoginAttemptRepositoryInterface defines operations for login audit logging
type LoginAttemptRepositoryInterface interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error
}
