package groq

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"nextgen-hr-worker/pkg/apperror"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"

	chatModel    = "llama-3.3-70b-versatile"
	whisperModel = "whisper-large-v3-turbo"

	chatTemperature = 0.5
	chatMaxTokens   = 1024
)

// Client wraps the Groq OpenAI-compatible API for chat completion and
// speech transcription.
type Client struct {
	api *openai.Client
}

func NewClient(apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultBaseURL
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

// Complete sends a system instruction and user payload to the chat model and
// returns the full response text. The response is streamed and accumulated;
// callers always see a single complete string.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
		TopP:        1,
		Stream:      true,
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", apperror.ModelCall("open completion stream", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", apperror.ModelCall("read completion stream", err)
		}
		if len(resp.Choices) > 0 {
			sb.WriteString(resp.Choices[0].Delta.Content)
		}
	}
	return sb.String(), nil
}

// Transcribe sends a local audio file to the Whisper model and returns the
// transcript.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:       whisperModel,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatJSON,
		Temperature: 0,
	})
	if err != nil {
		return "", apperror.ModelCall("transcribe "+audioPath, err)
	}
	return resp.Text, nil
}
