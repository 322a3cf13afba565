// Package question normalizes the model's delimiter-separated question
// output into discrete question records.
package question

import (
	"strings"

	"nextgen-hr-worker/internal/domain"
)

// Delimiter separates candidate questions in the model response.
const Delimiter = "//"

// Process splits raw on the delimiter, trims each fragment, drops empty
// ones and guarantees a trailing question mark. Order is preserved and the
// operation is idempotent: re-running on an already-normalized sequence is a
// no-op.
func Process(raw string) []domain.Question {
	fragments := strings.Split(raw, Delimiter)

	questions := make([]domain.Question, 0, len(fragments))
	for _, fragment := range fragments {
		text := strings.TrimSpace(fragment)
		if text == "" {
			continue
		}
		if !strings.HasSuffix(text, "?") {
			text += "?"
		}
		questions = append(questions, domain.Question{Question: text})
	}
	return questions
}
