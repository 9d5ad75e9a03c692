package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
	"github.com/user/recipe-service/pkg/metrics"
)

// RetryPolicy bounds the repair retries issued after a ComponentShapeError.
type RetryPolicy struct {
	MaxRetries  int
	Backoff     time.Duration
	Prompt      PromptVariant
	Temperature float64
}

// DefaultRetryPolicy allows exactly one immediate retry with the simplified
// prompt at a lower temperature.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  1,
		Backoff:     0,
		Prompt:      PromptSimplified,
		Temperature: 0.1,
	}
}

// ExtractRequest is the input of one structured extraction.
type ExtractRequest struct {
	SourceURL string
	RawText   string
	Locale    string
}

// RecipeExtractor turns assembled raw text into a validated recipe.
type RecipeExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) (entity.RecipeJSON, error)
}

type structuredExtractor struct {
	llm           repository.LLMClient
	temperature   float64
	retry         RetryPolicy
	defaultLocale string
}

// NewStructuredExtractor creates a RecipeExtractor backed by an LLM.
func NewStructuredExtractor(llm repository.LLMClient, temperature float64, retry RetryPolicy, defaultLocale string) RecipeExtractor {
	return &structuredExtractor{
		llm:           llm,
		temperature:   temperature,
		retry:         retry,
		defaultLocale: defaultLocale,
	}
}

func (s *structuredExtractor) Extract(ctx context.Context, req ExtractRequest) (entity.RecipeJSON, error) {
	locale := req.Locale
	if locale == "" {
		locale = s.defaultLocale
	}
	content := SanitizeText(req.RawText)

	slog.Debug("Starting structured extraction", "url", req.SourceURL, "raw_chars", len(req.RawText), "sanitized_chars", len(content), "locale", locale)

	recipe, err := s.attempt(ctx, PromptFull, s.temperature, req.SourceURL, content, locale)
	for retry := 0; err != nil && retry < s.retry.MaxRetries; retry++ {
		var shapeErr *ComponentShapeError
		if !errors.As(err, &shapeErr) {
			break
		}
		metrics.LLMRetriesTotal.Inc()
		slog.Warn("Component shape error, retrying with simplified prompt", "url", req.SourceURL, "attempt", retry+1, "error", err)

		if s.retry.Backoff > 0 {
			select {
			case <-ctx.Done():
				return entity.RecipeJSON{}, ctx.Err()
			case <-time.After(s.retry.Backoff):
			}
		}
		recipe, err = s.attempt(ctx, s.retry.Prompt, s.retry.Temperature, req.SourceURL, content, locale)
	}

	if err != nil {
		var shapeErr *ComponentShapeError
		if errors.As(err, &shapeErr) {
			err = &SchemaValidationError{Field: "components", Reason: "still malformed after retry", Err: shapeErr}
		}
		return entity.RecipeJSON{}, err
	}

	slog.Info("Recipe extracted",
		"url", req.SourceURL,
		"title", recipe.Title,
		"components", len(recipe.Components),
		"ingredients", len(recipe.Ingredients),
		"steps", len(recipe.Steps),
	)
	return recipe, nil
}

func (s *structuredExtractor) attempt(ctx context.Context, variant PromptVariant, temperature float64, sourceURL, content, locale string) (entity.RecipeJSON, error) {
	output, err := s.llm.Complete(ctx, repository.CompletionRequest{
		System:      extractionSystemPrompt,
		Prompt:      BuildPrompt(variant, sourceURL, content, locale),
		Temperature: temperature,
	})
	if err != nil {
		return entity.RecipeJSON{}, fmt.Errorf("llm completion failed: %w", err)
	}
	return ParseRecipe(output, sourceURL, locale)
}
