package usecase

import (
	"context"
	"fmt"

	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/internal/question"
	"nextgen-hr-worker/internal/report"
	"nextgen-hr-worker/pkg/apperror"
	"nextgen-hr-worker/pkg/logger"
)

type intakeUsecase struct {
	applicationRepo domain.ApplicationRepository
	interviewRepo   domain.InterviewRepository
	extractor       domain.TextExtractor
	llm             domain.CompletionClient

	questionCount int
	scoreRequired bool
}

// NewIntakeUsecase creates the application-intake orchestrator.
// scoreRequired controls whether an unparseable ATS score fails the message
// or is logged and carried as absent.
func NewIntakeUsecase(
	applicationRepo domain.ApplicationRepository,
	interviewRepo domain.InterviewRepository,
	extractor domain.TextExtractor,
	llm domain.CompletionClient,
	questionCount int,
	scoreRequired bool,
) domain.IntakeProcessor {
	return &intakeUsecase{
		applicationRepo: applicationRepo,
		interviewRepo:   interviewRepo,
		extractor:       extractor,
		llm:             llm,
		questionCount:   questionCount,
		scoreRequired:   scoreRequired,
	}
}

// ProcessApplication runs the full intake sequence for one application.
// Stages are strictly sequential; the first failure aborts and nothing is
// persisted.
func (uc *intakeUsecase) ProcessApplication(ctx context.Context, applicationID string) error {
	log := logger.Log.With("application_id", applicationID)

	// 1. Fetch the application together with its job
	app, err := uc.applicationRepo.GetWithJob(ctx, applicationID)
	if err != nil {
		return apperror.Persistence("fetch application", err)
	}
	if app.Job == nil {
		return apperror.Persistence("application has no job record", nil)
	}

	// 2. Extract resume text
	resumeText, err := uc.extractor.ExtractText(ctx, app.ResumeURL)
	if err != nil {
		return err
	}
	log.Debug("resume text extracted", "chars", len(resumeText))

	// 3. Summarize the resume
	summary, err := uc.llm.Complete(ctx, summarizationPrompt, resumeText)
	if err != nil {
		return err
	}
	log.Debug("resume summarized", "chars", len(summary))

	// 4. Score the summary against the job description
	userPrompt := scoringUserPrompt(summary, app.Job.Description)
	atsReport, err := uc.llm.Complete(ctx, atsPrompt, userPrompt)
	if err != nil {
		return err
	}

	// 5. Parse the report. A score miss is a normal outcome of model drift;
	// whether it aborts the message is a policy choice.
	parsed := report.Parse(atsReport)
	if !parsed.Score.Found {
		if uc.scoreRequired {
			return fmt.Errorf("ATS report contains no recoverable score")
		}
		log.Warn("ATS report score not found, continuing without it")
	} else {
		log.Info("ATS report scored", "score", parsed.Score.Value)
	}

	// 6. Generate and normalize interview questions
	questionsRaw, err := uc.llm.Complete(ctx, questionPrompt(uc.questionCount), userPrompt)
	if err != nil {
		return err
	}
	questions := question.Process(questionsRaw)
	if len(questions) == 0 {
		return fmt.Errorf("model returned no usable interview questions")
	}

	// 7. Persist the scheduled interview. AverageScore stays unset until the
	// evaluation workflow runs.
	interview := &domain.Interview{
		JobID:       app.JobID,
		CandidateID: app.CandidateID,
		Status:      domain.InterviewStatusScheduled,
		Questions:   questions,
	}
	if parsed.Score.Found {
		score := parsed.Score.Value
		interview.AtsScore = &score
		interview.AtsReport = &atsReport
	}

	if err := uc.interviewRepo.Insert(ctx, interview); err != nil {
		return apperror.Persistence("insert interview", err)
	}

	log.Info("interview scheduled", "interview_id", interview.ID, "questions", len(questions))
	return nil
}
