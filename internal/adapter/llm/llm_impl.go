package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/user/recipe-service/internal/repository"
)

type completeFunc func(ctx context.Context, system, prompt string, temperature float64) (string, error)

// Client sends extraction prompts to an OpenAI-compatible chat endpoint.
type Client struct {
	complete completeFunc
	model    string
}

// NewClient builds a Client on top of the go-kit llm client.
func NewClient(apiBase, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *Client {
	c := llm.NewClient(apiBase, apiKey, model,
		llm.WithMaxTokens(maxTokens),
		llm.WithTemperature(temperature),
		llm.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &Client{
		model: model,
		complete: func(ctx context.Context, system, prompt string, temperature float64) (string, error) {
			return c.Complete(ctx, system, prompt, llm.WithChatTemperature(temperature))
		},
	}
}

// Complete returns the raw model output for req.
func (c *Client) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	startTime := time.Now()
	out, err := c.complete(ctx, req.System, req.Prompt, req.Temperature)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("llm returned empty output")
	}
	slog.Debug("LLM completion",
		"model", c.model,
		"prompt_chars", len(req.Prompt),
		"output_chars", len(out),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return out, nil
}
