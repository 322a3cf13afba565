package usecase

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/pkg/apperror"
	"nextgen-hr-worker/pkg/logger"
)

type evaluationUsecase struct {
	interviewRepo domain.InterviewRepository
	audio         domain.AudioFetcher
	speech        domain.Transcriber
	llm           domain.CompletionClient
}

// NewEvaluationUsecase creates the interview-evaluation orchestrator.
func NewEvaluationUsecase(
	interviewRepo domain.InterviewRepository,
	audio domain.AudioFetcher,
	speech domain.Transcriber,
	llm domain.CompletionClient,
) domain.EvaluationProcessor {
	return &evaluationUsecase{
		interviewRepo: interviewRepo,
		audio:         audio,
		speech:        speech,
		llm:           llm,
	}
}

// ProcessInterview evaluates every recorded answer of a completed interview
// and persists per-question evaluations plus the aggregate score in one
// update. Any per-question failure aborts the whole message; no partial
// credit is persisted.
func (uc *evaluationUsecase) ProcessInterview(ctx context.Context, interviewID string) error {
	log := logger.Log.With("interview_id", interviewID)

	interview, err := uc.interviewRepo.GetByID(ctx, interviewID)
	if err != nil {
		return apperror.Persistence("fetch interview", err)
	}

	total := 0
	for i := range interview.Questions {
		q := &interview.Questions[i]
		if q.AnswerAudioURL == "" {
			return fmt.Errorf("question %d has no recorded answer", i)
		}

		score, answer, err := uc.evaluateAnswer(ctx, q.Question, q.AnswerAudioURL)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}

		q.Answer = answer
		q.Evaluation = strconv.Itoa(score)
		total += score
		log.Debug("answer evaluated", "question", i, "score", score)
	}

	// Mean of per-question scores; an interview without questions aggregates
	// to zero rather than dividing by zero.
	average := 0.0
	if len(interview.Questions) > 0 {
		average = float64(total) / float64(len(interview.Questions))
	}

	modified, err := uc.interviewRepo.UpdateResults(ctx, interview.ID, interview.Questions, average)
	if err != nil {
		return apperror.Persistence("update interview results", err)
	}
	if modified == 0 {
		return apperror.Persistence("interview "+interview.ID+" not updated", nil)
	}

	log.Info("interview evaluated", "questions", len(interview.Questions), "average_score", average)
	return nil
}

// evaluateAnswer downloads one answer recording, transcribes it and scores
// the transcript against the rubric.
func (uc *evaluationUsecase) evaluateAnswer(ctx context.Context, questionText, audioURL string) (int, string, error) {
	audioPath, err := uc.audio.Fetch(ctx, audioURL)
	if err != nil {
		return 0, "", err
	}
	defer os.Remove(audioPath)

	answer, err := uc.speech.Transcribe(ctx, audioPath)
	if err != nil {
		return 0, "", err
	}

	evaluation, err := uc.llm.Complete(ctx, evaluationPrompt, evaluationUserPrompt(questionText, answer))
	if err != nil {
		return 0, "", err
	}

	score, err := parseEvaluationScore(evaluation)
	if err != nil {
		return 0, "", err
	}
	return score, answer, nil
}

var evaluationScoreRe = regexp.MustCompile(`\d{1,3}`)

// parseEvaluationScore pulls the first in-range integer out of the model's
// evaluation output. The rubric asks for a bare number, but the model
// occasionally wraps it in prose or a /100 suffix.
func parseEvaluationScore(evaluation string) (int, error) {
	for _, match := range evaluationScoreRe.FindAllString(evaluation, -1) {
		value, err := strconv.Atoi(match)
		if err == nil && value <= 100 {
			return value, nil
		}
	}
	return 0, fmt.Errorf("no score in evaluation output %q", evaluation)
}
