package domain

import "context"

// Queue names shared with the publishing backend
const (
	QueueApplicationSubmitted = "new_job_application_queue"
	QueueInterviewCompleted   = "interview_completed_queue"
)

// ApplicationSubmittedEvent is the JSON body on the job-application queue.
// The interview-completion queue carries a bare interview identifier instead.
type ApplicationSubmittedEvent struct {
	ApplicationID string `json:"applicationId" validate:"required"`
}

// IntakeProcessor runs the application-intake pipeline for one message
type IntakeProcessor interface {
	ProcessApplication(ctx context.Context, applicationID string) error
}

// EvaluationProcessor runs the interview-evaluation pipeline for one message
type EvaluationProcessor interface {
	ProcessInterview(ctx context.Context, interviewID string) error
}
