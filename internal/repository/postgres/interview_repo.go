package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/pkg/apperror"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type interviewRepo struct {
	db *pgxpool.Pool
}

// NewInterviewRepository creates a new interview repository
func NewInterviewRepository(db *pgxpool.Pool) domain.InterviewRepository {
	return &interviewRepo{db: db}
}

// GetByID retrieves an interview by ID, decoding the questions document
func (r *interviewRepo) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	query := `
		SELECT id, job_id, candidate_id, status, questions,
			average_score, ats_score, ats_report, created_at, updated_at
		FROM interviews
		WHERE id = $1`

	var (
		iv       domain.Interview
		rawItems []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&iv.ID, &iv.JobID, &iv.CandidateID, &iv.Status, &rawItems,
		&iv.AverageScore, &iv.AtsScore, &iv.AtsReport, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Persistence(fmt.Sprintf("interview %s not found", id), err)
		}
		return nil, err
	}

	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &iv.Questions); err != nil {
			return nil, apperror.Persistence(fmt.Sprintf("interview %s has malformed questions", id), err)
		}
	}
	return &iv, nil
}

// Insert creates a new interview record, assigning an ID when absent
func (r *interviewRepo) Insert(ctx context.Context, iv *domain.Interview) error {
	query := `
		INSERT INTO interviews (id, job_id, candidate_id, status, questions,
			average_score, ats_score, ats_report, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	now := time.Now()
	iv.CreatedAt = now
	iv.UpdatedAt = now

	rawItems, err := json.Marshal(iv.Questions)
	if err != nil {
		return apperror.Persistence("encode interview questions", err)
	}

	err = r.db.QueryRow(ctx, query,
		iv.ID,
		iv.JobID,
		iv.CandidateID,
		iv.Status,
		rawItems,
		iv.AverageScore,
		iv.AtsScore,
		iv.AtsReport,
		iv.CreatedAt,
		iv.UpdatedAt,
	).Scan(&iv.ID)
	if err != nil {
		return apperror.Persistence(fmt.Sprintf("insert interview for candidate %s", iv.CandidateID), err)
	}
	return nil
}

// UpdateResults stores the evaluated questions and aggregate score and marks
// the interview completed. Returns the number of rows modified so the caller
// can detect a silent miss.
func (r *interviewRepo) UpdateResults(ctx context.Context, id string, questions []domain.Question, averageScore float64) (int64, error) {
	query := `
		UPDATE interviews
		SET questions = $2, average_score = $3, status = $4, updated_at = $5
		WHERE id = $1`

	rawItems, err := json.Marshal(questions)
	if err != nil {
		return 0, apperror.Persistence("encode interview questions", err)
	}

	ct, err := r.db.Exec(ctx, query, id, rawItems, averageScore, domain.InterviewStatusCompleted, time.Now())
	if err != nil {
		return 0, apperror.Persistence(fmt.Sprintf("update interview %s results", id), err)
	}
	return ct.RowsAffected(), nil
}
