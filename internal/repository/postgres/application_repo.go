package postgres

import (
	"context"
	"errors"
	"fmt"
	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/pkg/apperror"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type applicationRepo struct {
	db *pgxpool.Pool
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *pgxpool.Pool) domain.ApplicationRepository {
	return &applicationRepo{db: db}
}

// GetWithJob retrieves an application by ID with its job joined in. The job
// columns are nullable on the left join; a missing job row leaves app.Job nil.
func (r *applicationRepo) GetWithJob(ctx context.Context, id string) (*domain.Application, error) {
	query := `
		SELECT
			a.id, a.job_id, a.candidate_id, a.name, a.email, a.phone,
			a.resume_url, a.created_at,
			j.id, j.title, j.description, j.eligibility, j.created_at
		FROM applications a
		LEFT JOIN jobs j ON a.job_id = j.id
		WHERE a.id = $1`

	var (
		app            domain.Application
		jobID          *string
		jobTitle       *string
		jobDescription *string
		jobEligibility *string
		jobCreatedAt   *time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&app.ID, &app.JobID, &app.CandidateID, &app.Name, &app.Email, &app.Phone,
		&app.ResumeURL, &app.CreatedAt,
		&jobID, &jobTitle, &jobDescription, &jobEligibility, &jobCreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Persistence(fmt.Sprintf("application %s not found", id), err)
		}
		return nil, err
	}

	if jobID != nil {
		app.Job = &domain.Job{
			ID:          *jobID,
			Title:       deref(jobTitle),
			Description: deref(jobDescription),
			Eligibility: jobEligibility,
		}
		if jobCreatedAt != nil {
			app.Job.CreatedAt = *jobCreatedAt
		}
	}
	return &app, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
