package usecase

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

// eventBuffer exceeds the number of events a single run can emit, so sends
// never block even when the client has detached.
const eventBuffer = 16

// progressEmitter publishes the events of one run to the client channel, the
// optional progress log and the job record, one at a time.
type progressEmitter struct {
	url      string
	start    time.Time
	now      func() time.Time
	estimate int

	out         chan<- entity.ProgressEvent
	jobs        repository.JobRepository
	jobTracked  bool
	progressLog repository.ProgressLogRepository

	mu   sync.Mutex
	last int
}

func (e *progressEmitter) elapsed() int {
	return int(math.Round(e.now().Sub(e.start).Seconds()))
}

// emit sends a stage boundary event. Progress never goes backwards.
func (e *progressEmitter) emit(ctx context.Context, step entity.Step, progress int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev := e.stamp(entity.ProgressEvent{Step: step, Progress: progress, Message: message})
	e.publish(ctx, ev)

	if !e.jobTracked {
		return
	}
	err := e.jobs.UpdateProgress(ctx, e.url, entity.JobProgress{
		Progress:          ev.Progress,
		CurrentStep:       string(ev.Step),
		Message:           ev.Message,
		EstimatedDuration: ev.EstimatedTotalSeconds,
	})
	if err != nil {
		slog.Warn("Failed to update extraction job", "url", e.url, "step", step, "error", err)
	}
}

// finish records the terminal event, calls release, then sends the event to
// the client. The log holds the event before the URL can be resubmitted, and
// the client only sees it once resubmission is possible. The job row is
// finalized by the caller.
func (e *progressEmitter) finish(ctx context.Context, ev entity.ProgressEvent, release func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev = e.stamp(ev)
	e.record(ctx, ev)
	release()
	e.send(ev)
}

func (e *progressEmitter) stamp(ev entity.ProgressEvent) entity.ProgressEvent {
	if ev.Progress < e.last {
		ev.Progress = e.last
	}
	if ev.Progress > 100 {
		ev.Progress = 100
	}
	e.last = ev.Progress
	ev.ElapsedSeconds = e.elapsed()
	ev.EstimatedTotalSeconds = e.estimate
	return ev
}

func (e *progressEmitter) publish(ctx context.Context, ev entity.ProgressEvent) {
	e.send(ev)
	e.record(ctx, ev)
}

func (e *progressEmitter) send(ev entity.ProgressEvent) {
	slog.Debug("Progress", "url", e.url, "step", ev.Step, "progress", ev.Progress, "message", ev.Message, "elapsed_s", ev.ElapsedSeconds)

	select {
	case e.out <- ev:
	default:
		slog.Warn("Progress channel full, dropping event", "url", e.url, "step", ev.Step)
	}
}

func (e *progressEmitter) record(ctx context.Context, ev entity.ProgressEvent) {
	if e.progressLog == nil {
		return
	}
	if err := e.progressLog.Append(ctx, e.url, ev); err != nil {
		slog.Warn("Failed to append progress log", "url", e.url, "error", err)
	}
}
