package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/veriface-labs/poseguard/internal/domain"
)

type TemplateRepository struct {
	pool PgxPool
}

func NewTemplateRepository(pool PgxPool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Replace atomically swaps the subject's template: the old template and its
// embeddings are removed and the new one inserted inside a single
// transaction, so a concurrent reader never observes embeddings from two
// different enrollment sessions.
func (r *TemplateRepository) Replace(ctx context.Context, template *domain.BiometricTemplate) error {
	if !template.Complete() {
		return domain.ErrInvalidTemplate
	}

	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace template: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM templates WHERE subject_id = $1`,
		template.SubjectID,
	); err != nil {
		return fmt.Errorf("delete previous template: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO templates (id, subject_id, created_at)
		 VALUES ($1, $2, NOW())
		 RETURNING created_at`,
		template.ID,
		template.SubjectID,
	).Scan(&template.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVerificationFailed.WithError(err)
		}
		return fmt.Errorf("insert template: %w", err)
	}

	for i, embedding := range template.Embeddings {
		if _, err := tx.Exec(ctx,
			`INSERT INTO template_embeddings (template_id, pose, position, embedding)
			 VALUES ($1, $2, $3, $4)`,
			template.ID,
			string(domain.PoseSequence[i]),
			i,
			toVector(embedding),
		); err != nil {
			return fmt.Errorf("insert embedding %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace template: %w", err)
	}

	return nil
}

// GetBySubjectID loads a template with its embeddings in pose order
func (r *TemplateRepository) GetBySubjectID(ctx context.Context, subjectID string) (*domain.BiometricTemplate, error) {
	var template domain.BiometricTemplate

	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, created_at
		 FROM templates
		 WHERE subject_id = $1`,
		subjectID,
	).Scan(&template.ID, &template.SubjectID, &template.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template by subject_id: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT embedding
		 FROM template_embeddings
		 WHERE template_id = $1
		 ORDER BY position`,
		template.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get template embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		template.Embeddings = append(template.Embeddings, fromVector(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	if !template.Complete() {
		// A template without its three pose embeddings must never reach the
		// match engine
		return nil, domain.ErrInvalidTemplate
	}

	return &template, nil
}

// Delete removes the subject's template and (via cascade) its embeddings
func (r *TemplateRepository) Delete(ctx context.Context, subjectID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM templates WHERE subject_id = $1`,
		subjectID,
	)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}

	return nil
}
