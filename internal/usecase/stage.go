package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/pkg/metrics"
)

// StageKind decides what a stage failure does to the pipeline.
type StageKind int

const (
	// BestEffort failures are logged and the pipeline continues degraded.
	BestEffort StageKind = iota
	// Fatal failures abort the pipeline and fail the job.
	Fatal
)

func (k StageKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "best_effort"
}

// StageError is a fatal stage failure as seen by the orchestrator boundary.
type StageError struct {
	Stage entity.Step
	Kind  entity.ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type stage struct {
	name      entity.Step
	kind      StageKind
	errorKind entity.ErrorKind // reported when a Fatal stage fails
	run       func(ctx context.Context) error
}

// runStage executes one stage and applies its kind: best-effort failures are
// swallowed, fatal ones come back as *StageError.
func runStage(ctx context.Context, s stage) error {
	start := time.Now()
	err := s.run(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.StageDuration.WithLabelValues(string(s.name), outcome).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if s.kind == BestEffort {
		slog.Warn("Stage failed, continuing", "stage", s.name, "kind", s.kind, "error", err)
		return nil
	}
	slog.Error("Stage failed, aborting pipeline", "stage", s.name, "kind", s.kind, "error", err)
	return &StageError{Stage: s.name, Kind: s.errorKind, Err: err}
}
