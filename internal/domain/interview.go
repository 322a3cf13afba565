package domain

import (
	"context"
	"time"
)

// Interview status constants
const (
	InterviewStatusScheduled = "scheduled"
	InterviewStatusCompleted = "completed"
	InterviewStatusCancelled = "cancelled"
)

// Question is one generated interview question. After processing, the text is
// always non-empty and question-mark-terminated. Answer, AnswerAudioURL and
// Evaluation are filled in as the candidate records and the worker evaluates.
type Question struct {
	Question       string `json:"question"`
	AnswerAudioURL string `json:"answerAudioUrl,omitempty"`
	Answer         string `json:"answer,omitempty"`
	Evaluation     string `json:"evaluation,omitempty"` // 0-100, set by the evaluation workflow
}

// Interview is created by the intake workflow and completed by the
// evaluation workflow. Never deleted by the worker.
type Interview struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	CandidateID  string     `json:"candidate_id"`
	Status       string     `json:"status"` // scheduled → completed / cancelled
	Questions    []Question `json:"questions"`
	AverageScore *float64   `json:"average_score,omitempty"` // mean of per-question evaluations
	AtsScore     *int       `json:"ats_score,omitempty"`     // parsed from the ATS report when recoverable
	AtsReport    *string    `json:"ats_report,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// InterviewRepository defines data access for interviews
type InterviewRepository interface {
	GetByID(ctx context.Context, id string) (*Interview, error)

	// Insert stores a new interview and fills in its generated ID
	Insert(ctx context.Context, interview *Interview) error

	// UpdateResults replaces the questions array and aggregate score in a
	// single update keyed by interview identity, marking the interview
	// completed. Returns the number of modified rows.
	UpdateResults(ctx context.Context, id string, questions []Question, averageScore float64) (int64, error)
}
