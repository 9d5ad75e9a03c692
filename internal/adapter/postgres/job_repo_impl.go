package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

// JobRepoImpl provides a concrete implementation for the JobRepository interface using PostgreSQL.
type JobRepoImpl struct {
	db *pgxpool.Pool
}

// NewJobRepo creates a new instance of JobRepoImpl.
func NewJobRepo(db *pgxpool.Pool) *JobRepoImpl {
	return &JobRepoImpl{db: db}
}

// Start creates the job for a URL. A previous job for the same URL is reset
// to processing on conflict.
func (r *JobRepoImpl) Start(ctx context.Context, job *entity.ExtractionJob) error {
	query := `
		INSERT INTO extraction_jobs (id, url, locale, notes, status, progress, current_step, message, estimated_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			locale = EXCLUDED.locale,
			notes = EXCLUDED.notes,
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			current_step = EXCLUDED.current_step,
			message = EXCLUDED.message,
			estimated_duration = EXCLUDED.estimated_duration,
			recipe_id = NULL,
			error_message = NULL,
			completed_at = NULL,
			updated_at = NOW();
	`
	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.URL,
		job.Locale,
		job.Notes,
		string(job.Status),
		job.Progress,
		job.CurrentStep,
		job.Message,
		job.EstimatedDuration,
	)
	return err
}

// UpdateProgress records a stage boundary of a processing job.
func (r *JobRepoImpl) UpdateProgress(ctx context.Context, url string, p entity.JobProgress) error {
	query := `
		UPDATE extraction_jobs
		SET progress = $2, current_step = $3, message = $4, estimated_duration = $5, updated_at = NOW()
		WHERE url = $1 AND status = 'processing';
	`
	return r.execOne(ctx, query, url, p.Progress, p.CurrentStep, p.Message, p.EstimatedDuration)
}

// Complete marks the job completed. Only a processing job transitions, so a
// run is marked terminal at most once.
func (r *JobRepoImpl) Complete(ctx context.Context, url, recipeID string) error {
	query := `
		UPDATE extraction_jobs
		SET status = 'completed', progress = 100, current_step = 'complete',
			message = 'Recipe extracted successfully!', recipe_id = $2,
			completed_at = NOW(), updated_at = NOW()
		WHERE url = $1 AND status = 'processing';
	`
	return r.execOne(ctx, query, url, recipeID)
}

// Fail marks the job failed with a message.
func (r *JobRepoImpl) Fail(ctx context.Context, url, errorMessage string) error {
	query := `
		UPDATE extraction_jobs
		SET status = 'failed', current_step = 'error', message = $2, error_message = $2,
			completed_at = NOW(), updated_at = NOW()
		WHERE url = $1 AND status = 'processing';
	`
	return r.execOne(ctx, query, url, errorMessage)
}

// FindByURL retrieves the job for a URL.
func (r *JobRepoImpl) FindByURL(ctx context.Context, url string) (*entity.ExtractionJob, error) {
	query := `
		SELECT id, url, locale, notes, status, progress, current_step, message, estimated_duration,
			recipe_id, error_message, created_at, updated_at, completed_at
		FROM extraction_jobs
		WHERE url = $1;
	`
	var job entity.ExtractionJob
	err := r.db.QueryRow(ctx, query, url).Scan(
		&job.ID,
		&job.URL,
		&job.Locale,
		&job.Notes,
		&job.Status,
		&job.Progress,
		&job.CurrentStep,
		&job.Message,
		&job.EstimatedDuration,
		&job.RecipeID,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepoImpl) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
