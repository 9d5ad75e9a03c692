package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipe-service/internal/entity"
)

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, 75, EstimateDuration(true))
	assert.Equal(t, 60, EstimateDuration(false))
}

func TestResolveExtractionQuality(t *testing.T) {
	withCaptions := &entity.VideoContent{Title: "t", Captions: "hello", CombinedText: "t hello"}
	descriptionOnly := &entity.VideoContent{Title: "t", Description: "d", CombinedText: "t d"}
	ok := &entity.Transcript{Success: true, Text: "spoken"}
	failed := &entity.Transcript{ErrorKind: entity.TranscriptTimeout}

	tests := []struct {
		name        string
		content     *entity.VideoContent
		transcript  *entity.Transcript
		wantMethod  entity.ExtractionMethod
		wantQuality entity.ExtractionQuality
	}{
		{"transcript wins", descriptionOnly, ok, entity.MethodWhisper, entity.QualityHigh},
		{"transcript without content", nil, ok, entity.MethodWhisper, entity.QualityHigh},
		{"captions", withCaptions, failed, entity.MethodBasic, entity.QualityMedium},
		{"description only", descriptionOnly, nil, entity.MethodBasic, entity.QualityLow},
		{"empty content", &entity.VideoContent{}, failed, entity.MethodOEmbed, entity.QualityLow},
		{"nothing", nil, nil, entity.MethodOEmbed, entity.QualityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, quality := ResolveExtractionQuality(tt.content, tt.transcript)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantQuality, quality)
		})
	}
}

func TestBuildRawText(t *testing.T) {
	content := &entity.VideoContent{CombinedText: "Boil pasta. Add garlic."}

	t.Run("all parts", func(t *testing.T) {
		got := BuildRawText("Garlic Pasta", content, &entity.Transcript{Success: true, Text: "first you boil"}, "double the garlic")
		assert.Equal(t,
			"VIDEO TITLE: Garlic Pasta\n\n"+
				"VIDEO CONTENT: Boil pasta. Add garlic.\n\nTRANSCRIPT:\nfirst you boil\n\n"+
				"ADDITIONAL NOTES: double the garlic",
			got)
	})

	t.Run("title only", func(t *testing.T) {
		assert.Equal(t, "VIDEO TITLE: Garlic Pasta", BuildRawText("Garlic Pasta", nil, nil, "  "))
	})

	t.Run("transcript already in content", func(t *testing.T) {
		got := BuildRawText("", content, &entity.Transcript{Success: true, Text: "Add garlic."}, "")
		assert.Equal(t, "VIDEO CONTENT: Boil pasta. Add garlic.", got)
	})

	t.Run("failed transcript ignored", func(t *testing.T) {
		got := BuildRawText("", nil, &entity.Transcript{Text: "partial"}, "")
		assert.Empty(t, got)
	})
}

func TestPipelineState_PrefersMetadata(t *testing.T) {
	s := &pipelineState{
		metadata: &entity.PlatformMetadata{Title: "From oEmbed"},
		content:  &entity.VideoContent{Title: "From page", ThumbnailURL: "https://img/page.jpg"},
	}
	assert.Equal(t, "From oEmbed", s.title())
	assert.Equal(t, "https://img/page.jpg", s.thumbnail())
	assert.False(t, s.transcribed())

	s.metadata = nil
	assert.Equal(t, "From page", s.title())
}

func TestProgressEmitter_Monotonic(t *testing.T) {
	out := make(chan entity.ProgressEvent, eventBuffer)
	log := newFakeProgressLog()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	em := &progressEmitter{
		url:         testURL,
		start:       start,
		now:         func() time.Time { return now },
		estimate:    60,
		out:         out,
		jobs:        newFakeJobRepo(),
		progressLog: log,
	}

	ctx := context.Background()
	em.emit(ctx, entity.StepTranscription, 70, "done")
	now = start.Add(3 * time.Second)
	em.emit(ctx, entity.StepContent, 50, "late")
	em.finish(ctx, entity.ProgressEvent{Step: entity.StepComplete, Progress: 120}, func() {
		logged, err := log.List(ctx, testURL)
		require.NoError(t, err)
		require.Len(t, logged, 3)
		assert.True(t, logged[2].Terminal())
		assert.Len(t, out, 2, "terminal event sent before release")
	})
	close(out)

	events := drain(t, out)
	require.Len(t, events, 3)
	assert.Equal(t, 70, events[0].Progress)
	assert.Equal(t, 70, events[1].Progress)
	assert.Equal(t, 3, events[1].ElapsedSeconds)
	assert.Equal(t, 100, events[2].Progress)
	assert.Equal(t, 60, events[2].EstimatedTotalSeconds)

	logged, err := log.List(ctx, testURL)
	require.NoError(t, err)
	assert.Equal(t, events, logged)
}

func TestProgressEmitter_NeverBlocks(t *testing.T) {
	out := make(chan entity.ProgressEvent, 1)
	em := &progressEmitter{url: testURL, start: time.Now(), now: time.Now, out: out}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			em.emit(context.Background(), entity.StepStart, i, "tick")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full channel")
	}
	assert.Len(t, out, 1)
}
