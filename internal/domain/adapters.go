package domain

import "context"

// External-service adapters consumed by the pipeline. Concrete
// implementations live under pkg/; usecases depend only on these so tests
// can substitute fakes.

// TextExtractor converts a stored document into plain text via OCR
type TextExtractor interface {
	ExtractText(ctx context.Context, documentURI string) (string, error)
}

// CompletionClient wraps a chat-completion call with a fixed system prompt
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Transcriber turns a locally stored audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AudioFetcher downloads an answer-audio artifact to local scratch storage
// and returns the local path. The caller removes the file when done.
type AudioFetcher interface {
	Fetch(ctx context.Context, audioURI string) (string, error)
}
