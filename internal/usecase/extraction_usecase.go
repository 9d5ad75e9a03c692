package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
	"github.com/user/recipe-service/pkg/metrics"
)

var (
	// ErrExtractionInProgress is the duplicate-in-flight signal. It is not a
	// failure: the caller should wait for the running pipeline.
	ErrExtractionInProgress = errors.New("this URL is currently being processed")
)

// ExtractionRequest is one client submission.
type ExtractionRequest struct {
	URL    string
	Notes  string
	Locale string
}

// Submission is the result of Start: either the already extracted recipe or
// a live progress stream that ends with a terminal event and is then closed.
type Submission struct {
	Existing *entity.RecipeRecord
	Events   <-chan entity.ProgressEvent
}

// ExtractionOrchestrator runs the extraction pipeline for submitted URLs.
type ExtractionOrchestrator interface {
	// Start admits a request and returns immediately. The pipeline runs
	// independently of ctx cancellation.
	Start(ctx context.Context, req ExtractionRequest) (*Submission, error)
	// Wait blocks until all running pipelines have finished or ctx is done.
	Wait(ctx context.Context) error
}

// OrchestratorDeps wires the collaborators of the orchestrator. ProgressLog
// and SharedLock are optional.
type OrchestratorDeps struct {
	Recipes     repository.RecipeRepository
	Jobs        repository.JobRepository
	Metadata    repository.MetadataFetcher
	Content     repository.ContentFetcher
	Transcriber repository.Transcriber
	Extractor   RecipeExtractor
	ProgressLog repository.ProgressLogRepository
	SharedLock  repository.InFlightRepository
	LockTTL     time.Duration

	DefaultLocale string
}

type extractionOrchestrator struct {
	recipes     repository.RecipeRepository
	jobs        repository.JobRepository
	metadata    repository.MetadataFetcher
	content     repository.ContentFetcher
	transcriber repository.Transcriber
	extractor   RecipeExtractor
	progressLog repository.ProgressLogRepository

	guard         *inFlightGuard
	defaultLocale string
	now           func() time.Time
	wg            sync.WaitGroup
}

// NewExtractionOrchestrator creates the orchestrator.
func NewExtractionOrchestrator(deps OrchestratorDeps) ExtractionOrchestrator {
	return &extractionOrchestrator{
		recipes:       deps.Recipes,
		jobs:          deps.Jobs,
		metadata:      deps.Metadata,
		content:       deps.Content,
		transcriber:   deps.Transcriber,
		extractor:     deps.Extractor,
		progressLog:   deps.ProgressLog,
		guard:         newInFlightGuard(deps.SharedLock, deps.LockTTL),
		defaultLocale: deps.DefaultLocale,
		now:           time.Now,
	}
}

func (o *extractionOrchestrator) Start(ctx context.Context, req ExtractionRequest) (*Submission, error) {
	if strings.TrimSpace(req.Locale) == "" {
		req.Locale = o.defaultLocale
	}

	release, err := o.guard.acquire(ctx, req.URL)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("duplicate").Inc()
		slog.Warn("Duplicate extraction attempt", "url", req.URL)
		return nil, err
	}

	existing, err := o.recipes.FindByURL(ctx, req.URL)
	switch {
	case err == nil:
		release()
		metrics.ExtractionsTotal.WithLabelValues("existing").Inc()
		slog.Info("Recipe already extracted", "url", req.URL, "id", existing.ID)
		return &Submission{Existing: existing}, nil
	case !errors.Is(err, repository.ErrNotFound):
		release()
		return nil, fmt.Errorf("failed to look up existing recipe for %s: %w", req.URL, err)
	}

	events := make(chan entity.ProgressEvent, eventBuffer)
	runCtx := context.WithoutCancel(ctx)

	o.wg.Add(1)
	metrics.ExtractionsInFlight.Inc()
	go func() {
		defer o.wg.Done()
		defer metrics.ExtractionsInFlight.Dec()
		defer close(events)
		defer release()
		o.run(runCtx, req, events, release)
	}()

	return &Submission{Events: events}, nil
}

func (o *extractionOrchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes the staged pipeline. The terminal event reaches the progress
// log before the URL is released and the client channel after, so a client
// that resubmits on seeing it is not refused and starts from a clean log.
func (o *extractionOrchestrator) run(ctx context.Context, req ExtractionRequest, out chan<- entity.ProgressEvent, release func()) {
	state := &pipelineState{source: entity.DetectSourceType(req.URL)}
	transcribe := o.transcriber != nil && o.transcriber.Available()

	em := &progressEmitter{
		url:         req.URL,
		start:       o.now(),
		now:         o.now,
		estimate:    EstimateDuration(transcribe),
		out:         out,
		jobs:        o.jobs,
		progressLog: o.progressLog,
	}

	slog.Info("Starting extraction", "url", req.URL, "source", state.source, "locale", req.Locale, "transcription", transcribe)
	o.startJob(ctx, req, em)
	em.emit(ctx, entity.StepStart, 0, "Starting extraction...")
	em.emit(ctx, entity.StepStart, 5, "Initializing extraction...")

	pipeline := []stage{
		{name: entity.StepMetadata, kind: BestEffort, run: o.metadataStage(req, state, em)},
		{name: entity.StepProcessing, kind: BestEffort, run: o.processingStage(req, state, em, transcribe)},
		{name: entity.StepAI, kind: Fatal, errorKind: entity.ErrorKindExtraction, run: o.aiStage(req, state, em)},
		{name: entity.StepSaving, kind: Fatal, errorKind: entity.ErrorKindPersistence, run: o.savingStage(req, state, em)},
	}

	var final entity.ProgressEvent
	var failure error
	for _, s := range pipeline {
		if failure = runStage(ctx, s); failure != nil {
			break
		}
	}
	if failure != nil {
		final = o.fail(ctx, req, em, failure)
	} else {
		final = o.complete(ctx, req, em, state)
	}

	em.finish(ctx, final, release)
}

func (o *extractionOrchestrator) startJob(ctx context.Context, req ExtractionRequest, em *progressEmitter) {
	if o.progressLog != nil {
		if err := o.progressLog.Reset(ctx, req.URL); err != nil {
			slog.Warn("Failed to reset progress log", "url", req.URL, "error", err)
		}
	}
	err := o.jobs.Start(ctx, &entity.ExtractionJob{
		ID:                uuid.NewString(),
		URL:               req.URL,
		Locale:            req.Locale,
		Notes:             req.Notes,
		Status:            entity.JobProcessing,
		Progress:          0,
		CurrentStep:       string(entity.StepStart),
		Message:           "Starting extraction...",
		EstimatedDuration: em.estimate,
	})
	if err != nil {
		slog.Error("Failed to create extraction job, continuing without it", "url", req.URL, "error", err)
		return
	}
	em.jobTracked = true
}

func (o *extractionOrchestrator) metadataStage(req ExtractionRequest, state *pipelineState, em *progressEmitter) func(context.Context) error {
	return func(ctx context.Context) error {
		em.emit(ctx, entity.StepMetadata, 10, "Fetching video metadata...")
		if state.source == entity.SourceWeb {
			// Web pages have no oEmbed provider; the page itself is the source.
			em.emit(ctx, entity.StepMetadata, 20, "No platform metadata for web pages")
			return nil
		}
		md, err := o.metadata.FetchMetadata(ctx, req.URL, state.source)
		if err != nil {
			em.emit(ctx, entity.StepMetadata, 20, "Metadata unavailable, continuing")
			return fmt.Errorf("metadata lookup: %w", err)
		}
		state.metadata = md
		em.emit(ctx, entity.StepMetadata, 20, "Metadata retrieved")
		return nil
	}
}

// processingStage runs content extraction and transcription concurrently and
// waits for both to settle. Each is its own best-effort stage.
func (o *extractionOrchestrator) processingStage(req ExtractionRequest, state *pipelineState, em *progressEmitter, transcribe bool) func(context.Context) error {
	return func(ctx context.Context) error {
		em.emit(ctx, entity.StepProcessing, 30, "Analyzing video content...")

		var g errgroup.Group
		g.Go(func() error {
			return runStage(ctx, stage{name: entity.StepContent, kind: BestEffort, run: func(ctx context.Context) error {
				content, err := o.content.FetchContent(ctx, req.URL, state.source)
				if err != nil {
					em.emit(ctx, entity.StepContent, 50, "Video content unavailable, continuing")
					return fmt.Errorf("content extraction: %w", err)
				}
				state.content = content
				em.emit(ctx, entity.StepContent, 50, "Video content extracted")
				return nil
			}})
		})
		g.Go(func() error {
			return runStage(ctx, stage{name: entity.StepTranscription, kind: BestEffort, run: func(ctx context.Context) error {
				if !transcribe {
					metrics.TranscriptionsTotal.WithLabelValues(string(entity.TranscriptUnavailable)).Inc()
					em.emit(ctx, entity.StepTranscription, 70, "Audio transcription skipped (not configured)")
					return nil
				}
				t := o.transcriber.Transcribe(ctx, req.URL)
				if !t.Success {
					metrics.TranscriptionsTotal.WithLabelValues(string(t.ErrorKind)).Inc()
					em.emit(ctx, entity.StepTranscription, 70, "Audio transcription failed, continuing without it")
					return fmt.Errorf("transcription: %s", t.ErrorKind)
				}
				metrics.TranscriptionsTotal.WithLabelValues("success").Inc()
				state.transcript = &t
				em.emit(ctx, entity.StepTranscription, 70, "Audio transcription completed")
				return nil
			}})
		})
		return g.Wait()
	}
}

func (o *extractionOrchestrator) aiStage(req ExtractionRequest, state *pipelineState, em *progressEmitter) func(context.Context) error {
	return func(ctx context.Context) error {
		em.emit(ctx, entity.StepAI, 80, "Processing with AI...")
		state.rawText = BuildRawText(state.title(), state.content, state.transcript, req.Notes)

		recipe, err := o.extractor.Extract(ctx, ExtractRequest{
			SourceURL: req.URL,
			RawText:   state.rawText,
			Locale:    req.Locale,
		})
		if err != nil {
			return err
		}
		state.recipe = recipe
		return nil
	}
}

func (o *extractionOrchestrator) savingStage(req ExtractionRequest, state *pipelineState, em *progressEmitter) func(context.Context) error {
	return func(ctx context.Context) error {
		em.emit(ctx, entity.StepSaving, 90, "Saving recipe...")
		method, quality := ResolveExtractionQuality(state.content, state.transcript)

		record := &entity.RecipeRecord{
			ID:                 uuid.NewString(),
			SourceURL:          req.URL,
			SourceType:         state.source,
			RawText:            state.rawText,
			Extracted:          state.recipe,
			ThumbnailURL:       state.thumbnail(),
			ExtractionMethod:   method,
			ExtractionQuality:  quality,
			HasAudioTranscript: state.transcribed(),
			CreatedAt:          o.now().UTC(),
		}
		err := o.recipes.Insert(ctx, record)
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Another instance saved the same URL first; its row is the result.
			existing, findErr := o.recipes.FindByURL(ctx, req.URL)
			if findErr == nil {
				state.record = existing
				return nil
			}
		}
		if err != nil {
			return fmt.Errorf("failed to save recipe: %w", err)
		}
		metrics.ExtractionQualityTotal.WithLabelValues(string(method), string(quality)).Inc()
		state.record = record
		return nil
	}
}

func (o *extractionOrchestrator) complete(ctx context.Context, req ExtractionRequest, em *progressEmitter, state *pipelineState) entity.ProgressEvent {
	if em.jobTracked {
		if err := o.jobs.Complete(ctx, req.URL, state.record.ID); err != nil {
			slog.Warn("Failed to mark extraction job completed", "url", req.URL, "error", err)
		}
	}
	metrics.ExtractionsTotal.WithLabelValues("completed").Inc()
	slog.Info("Extraction completed",
		"url", req.URL,
		"id", state.record.ID,
		"method", state.record.ExtractionMethod,
		"quality", state.record.ExtractionQuality,
		"elapsed_s", em.elapsed(),
	)
	return entity.ProgressEvent{
		Step:     entity.StepComplete,
		Progress: 100,
		Message:  "Recipe extracted successfully!",
		Result:   &entity.ExtractionResult{RecipeID: state.record.ID, Recipe: state.record.Extracted},
	}
}

func (o *extractionOrchestrator) fail(ctx context.Context, req ExtractionRequest, em *progressEmitter, err error) entity.ProgressEvent {
	kind := entity.ErrorKindExtraction
	message := err.Error()
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		kind = stageErr.Kind
		message = stageErr.Err.Error()
	}

	if em.jobTracked {
		if jobErr := o.jobs.Fail(ctx, req.URL, message); jobErr != nil {
			slog.Warn("Failed to mark extraction job failed", "url", req.URL, "error", jobErr)
		}
	}
	metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
	slog.Error("Extraction failed", "url", req.URL, "kind", kind, "error", err)

	return entity.ProgressEvent{
		Step:    entity.StepError,
		Message: message,
		Failure: &entity.ExtractionFailure{ErrorKind: kind, Message: message},
	}
}
