package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

// JobStatus is what a detached client sees when it polls by URL.
type JobStatus struct {
	Job    *entity.ExtractionJob
	Events []entity.ProgressEvent
}

// JobStatusReader serves the read-only reattach endpoint. It never starts a
// pipeline.
type JobStatusReader interface {
	GetStatus(ctx context.Context, url string) (*JobStatus, error)
}

type jobStatusUseCase struct {
	jobs        repository.JobRepository
	progressLog repository.ProgressLogRepository
}

// NewJobStatusReader creates a JobStatusReader. progressLog may be nil.
func NewJobStatusReader(jobs repository.JobRepository, progressLog repository.ProgressLogRepository) JobStatusReader {
	return &jobStatusUseCase{
		jobs:        jobs,
		progressLog: progressLog,
	}
}

// GetStatus returns repository.ErrNotFound when no job exists for url.
func (uc *jobStatusUseCase) GetStatus(ctx context.Context, url string) (*JobStatus, error) {
	job, err := uc.jobs.FindByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to find extraction job: %w", err)
	}

	status := &JobStatus{Job: job}
	if uc.progressLog != nil {
		events, err := uc.progressLog.List(ctx, url)
		if err != nil {
			// The job row alone is enough to reattach.
			slog.Warn("Failed to read progress log", "url", url, "error", err)
		}
		status.Events = events
	}
	return status, nil
}
