package domain

import "time"

// Job is the posting a candidate applied to. Its description is the scoring
// context for the ATS report. Read-only to the worker.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Eligibility *string   `json:"eligibility,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
