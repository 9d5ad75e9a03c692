package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipe-service/pkg/metrics"
)

const flattenedComponents = `{"title":"Eggs","components":[{"name":"Main Dish"},"ingredients",[],"steps",[]],
"nutrition":{"perServing":{"calories":100},"total":{"calories":400}}}`

const goodEggs = `{"title":"Eggs","servings":4,"components":[{"name":"Eggs","ingredients":[{"quantity":"2","unit":null,"name":"egg","notes":null,"estimatedCost":0.5}],"steps":["Scramble."],"notes":null}],
"nutrition":{"perServing":{"calories":100},"total":{"calories":null}}}`

func TestStructuredExtractor_FirstAttemptSucceeds(t *testing.T) {
	llm := &fakeLLM{outputs: []string{goodEggs}}
	ex := NewStructuredExtractor(llm, 0.2, DefaultRetryPolicy(), "Guam")

	r, err := ex.Extract(context.Background(), ExtractRequest{
		SourceURL: "https://youtube.com/watch?v=eggs",
		RawText:   "VIDEO TITLE: “Eggs” 🍳",
	})
	require.NoError(t, err)

	assert.Equal(t, "Eggs", r.Title)
	assert.Equal(t, "Guam", r.CostLocation)
	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, extractionSystemPrompt, req.System)
	assert.Contains(t, req.Prompt, `VIDEO TITLE: "Eggs"`)
	assert.NotContains(t, req.Prompt, "🍳")
	assert.Contains(t, req.Prompt, "Guam")
}

func TestStructuredExtractor_RetriesShapeErrorOnce(t *testing.T) {
	before := testutil.ToFloat64(metrics.LLMRetriesTotal)
	llm := &fakeLLM{outputs: []string{flattenedComponents, goodEggs}}
	ex := NewStructuredExtractor(llm, 0.2, DefaultRetryPolicy(), "Guam")

	r, err := ex.Extract(context.Background(), ExtractRequest{SourceURL: "https://example.com/eggs", RawText: "eggs", Locale: "Osaka"})
	require.NoError(t, err)

	assert.Equal(t, "Osaka", r.CostLocation)
	require.Len(t, llm.requests, 2)
	assert.Equal(t, 0.1, llm.requests[1].Temperature)
	assert.Equal(t, BuildPrompt(PromptSimplified, "https://example.com/eggs", "eggs", "Osaka"), llm.requests[1].Prompt)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.LLMRetriesTotal))
}

func TestStructuredExtractor_ShapeErrorAfterRetryIsSchemaError(t *testing.T) {
	llm := &fakeLLM{outputs: []string{flattenedComponents, flattenedComponents, goodEggs}}
	ex := NewStructuredExtractor(llm, 0.2, DefaultRetryPolicy(), "Guam")

	_, err := ex.Extract(context.Background(), ExtractRequest{SourceURL: "https://example.com/eggs", RawText: "eggs"})

	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "components", schemaErr.Field)
	var shapeErr *ComponentShapeError
	assert.ErrorAs(t, err, &shapeErr)
	assert.Len(t, llm.requests, 2)
}

func TestStructuredExtractor_OtherErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"invalid json", &fakeLLM{outputs: []string{"not json at all", goodEggs}}},
		{"empty steps", &fakeLLM{outputs: []string{strings.Replace(goodEggs, `["Scramble."]`, `[]`, 1), goodEggs}}},
		{"completion error", &fakeLLM{errs: []error{errors.New("rate limited")}, outputs: []string{"", goodEggs}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewStructuredExtractor(tt.llm, 0.2, DefaultRetryPolicy(), "Guam")
			_, err := ex.Extract(context.Background(), ExtractRequest{SourceURL: "https://example.com", RawText: "x"})

			require.Error(t, err)
			assert.Len(t, tt.llm.requests, 1)
		})
	}
}

func TestStructuredExtractor_NoRetryWhenDisabled(t *testing.T) {
	llm := &fakeLLM{outputs: []string{flattenedComponents, goodEggs}}
	ex := NewStructuredExtractor(llm, 0.2, RetryPolicy{MaxRetries: 0}, "Guam")

	_, err := ex.Extract(context.Background(), ExtractRequest{SourceURL: "https://example.com", RawText: "x"})

	var schemaErr *SchemaValidationError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Len(t, llm.requests, 1)
}
