package repository

import (
	"context"

	"github.com/user/recipe-service/internal/entity"
)

// JobRepository defines the interface for the durable extraction job record.
type JobRepository interface {
	// Start creates the job for a URL, or resets a previous terminal job for
	// the same URL back to processing.
	Start(ctx context.Context, job *entity.ExtractionJob) error
	// UpdateProgress records a stage boundary.
	UpdateProgress(ctx context.Context, url string, p entity.JobProgress) error
	// Complete marks the job completed and links the recipe.
	Complete(ctx context.Context, url, recipeID string) error
	// Fail marks the job failed with a message.
	Fail(ctx context.Context, url, errorMessage string) error
	// FindByURL returns the job for a URL, or ErrNotFound.
	FindByURL(ctx context.Context, url string) (*entity.ExtractionJob, error)
}
