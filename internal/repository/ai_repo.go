package repository

import (
	"context"

	"github.com/user/recipe-service/internal/entity"
)

// Transcriber turns the audio of a video into text.
type Transcriber interface {
	// Available reports whether a provider credential is configured.
	Available() bool
	// Transcribe never returns an error; failures are described by the
	// Transcript's ErrorKind.
	Transcribe(ctx context.Context, url string) entity.Transcript
}

// CompletionRequest is one prompt sent to a generative model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// LLMClient sends prompts to a chat-completion model and returns the raw text.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
