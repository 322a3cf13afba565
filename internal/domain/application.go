package domain

import (
	"context"
	"time"
)

// Application is a submitted job application. Created by the web backend at
// application time; read-only to the worker.
type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ResumeURL   string    `json:"resume_url"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined job data, populated by GetWithJob
	Job *Job `json:"job,omitempty"`
}

// ApplicationRepository defines read access to applications
type ApplicationRepository interface {
	// GetWithJob fetches an application together with its referenced job
	GetWithJob(ctx context.Context, id string) (*Application, error)
}
