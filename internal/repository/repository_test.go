package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface-labs/poseguard/internal/domain"
)

func testEmbedding(fill float32) []float64 {
	emb := make([]float64, 512)
	for i := range emb {
		emb[i] = float64(fill)
	}
	return emb
}

func testVector(fill float32) pgvector.Vector {
	floats := make([]float32, 512)
	for i := range floats {
		floats[i] = fill
	}
	return pgvector.NewVector(floats)
}

func completeTemplate() *domain.BiometricTemplate {
	return &domain.BiometricTemplate{
		ID:        uuid.New(),
		SubjectID: "subject-1",
		Embeddings: [][]float64{
			testEmbedding(0.1),
			testEmbedding(0.2),
			testEmbedding(0.3),
		},
	}
}

// TemplateRepository Tests

func TestTemplateRepository_Replace(t *testing.T) {
	template := completeTemplate()
	now := time.Now()

	tests := []struct {
		name      string
		template  *domain.BiometricTemplate
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:     "successful replace",
			template: template,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM templates WHERE subject_id = \$1`).
					WithArgs(template.SubjectID).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectQuery(`INSERT INTO templates`).
					WithArgs(template.ID, template.SubjectID).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
				for i, emb := range template.Embeddings {
					mock.ExpectExec(`INSERT INTO template_embeddings`).
						WithArgs(template.ID, string(domain.PoseSequence[i]), i, toVector(emb)).
						WillReturnResult(pgxmock.NewResult("INSERT", 1))
				}
				mock.ExpectCommit()
			},
			wantErr: nil,
		},
		{
			name: "incomplete template never reaches the database",
			template: &domain.BiometricTemplate{
				ID:         uuid.New(),
				SubjectID:  "subject-1",
				Embeddings: [][]float64{testEmbedding(0.1)},
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {},
			wantErr:   domain.ErrInvalidTemplate,
		},
		{
			name:     "begin failure",
			template: template,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection lost"))
			},
			wantErr: errors.New("begin replace template"),
		},
		{
			name:     "embedding insert failure rolls back",
			template: template,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM templates WHERE subject_id = \$1`).
					WithArgs(template.SubjectID).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
				mock.ExpectQuery(`INSERT INTO templates`).
					WithArgs(template.ID, template.SubjectID).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
				mock.ExpectExec(`INSERT INTO template_embeddings`).
					WithArgs(template.ID, string(domain.PoseCenter), 0, toVector(template.Embeddings[0])).
					WillReturnError(errors.New("dimension mismatch"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("insert embedding 0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewTemplateRepository(mock)
			err = repo.Replace(context.Background(), tt.template)

			if tt.wantErr != nil {
				require.Error(t, err)
				var appErr *domain.AppError
				if errors.As(tt.wantErr, &appErr) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTemplateRepository_GetBySubjectID(t *testing.T) {
	templateID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		subjectID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful retrieval",
			subjectID: "subject-1",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, subject_id, created_at`).
					WithArgs("subject-1").
					WillReturnRows(pgxmock.NewRows([]string{"id", "subject_id", "created_at"}).
						AddRow(templateID, "subject-1", now))
				mock.ExpectQuery(`SELECT embedding`).
					WithArgs(templateID).
					WillReturnRows(pgxmock.NewRows([]string{"embedding"}).
						AddRow(testVector(0.1)).
						AddRow(testVector(0.2)).
						AddRow(testVector(0.3)))
			},
			wantErr: nil,
		},
		{
			name:      "template not found",
			subjectID: "ghost",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, subject_id, created_at`).
					WithArgs("ghost").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrTemplateNotFound,
		},
		{
			name:      "partial template is invalid",
			subjectID: "subject-1",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, subject_id, created_at`).
					WithArgs("subject-1").
					WillReturnRows(pgxmock.NewRows([]string{"id", "subject_id", "created_at"}).
						AddRow(templateID, "subject-1", now))
				mock.ExpectQuery(`SELECT embedding`).
					WithArgs(templateID).
					WillReturnRows(pgxmock.NewRows([]string{"embedding"}).
						AddRow(testVector(0.1)).
						AddRow(testVector(0.2)))
			},
			wantErr: domain.ErrInvalidTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewTemplateRepository(mock)
			got, err := repo.GetBySubjectID(context.Background(), tt.subjectID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, templateID, got.ID)
				assert.Equal(t, "subject-1", got.SubjectID)
				assert.True(t, got.Complete())
				assert.InDelta(t, 0.1, got.Embeddings[0][0], 1e-6)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTemplateRepository_Delete(t *testing.T) {
	tests := []struct {
		name      string
		subjectID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful delete",
			subjectID: "subject-1",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM templates WHERE subject_id = \$1`).
					WithArgs("subject-1").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
			wantErr: nil,
		},
		{
			name:      "nothing to delete",
			subjectID: "ghost",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM templates WHERE subject_id = \$1`).
					WithArgs("ghost").
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: domain.ErrTemplateNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewTemplateRepository(mock)
			err = repo.Delete(context.Background(), tt.subjectID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// LoginAttemptRepository Tests

func TestLoginAttemptRepository_Create(t *testing.T) {
	templateID := uuid.New()
	now := time.Now()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	attempt := &domain.LoginAttempt{
		SubjectID:  "subject-1",
		TemplateID: &templateID,
		Verified:   true,
		Distance:   0.12,
		Confidence: 0.76,
		LatencyMs:  42,
	}

	mock.ExpectQuery(`INSERT INTO login_attempts`).
		WithArgs(pgxmock.AnyArg(), attempt.SubjectID, attempt.TemplateID, attempt.Verified, attempt.Distance, attempt.Confidence, attempt.LatencyMs).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	repo := NewLoginAttemptRepository(mock)
	require.NoError(t, repo.Create(context.Background(), attempt))

	assert.NotEqual(t, uuid.Nil, attempt.ID)
	assert.Equal(t, now, attempt.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)")))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}

func TestVectorRoundTrip(t *testing.T) {
	emb := testEmbedding(0.25)
	got := fromVector(toVector(emb))

	require.Len(t, got, len(emb))
	assert.InDelta(t, emb[0], got[0], 1e-6)
	assert.InDelta(t, emb[511], got[511], 1e-6)
}
