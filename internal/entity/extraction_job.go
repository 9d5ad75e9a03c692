package entity

import "time"

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ExtractionJob mirrors the `extraction_jobs` PostgreSQL table. It is the
// durable view of a running or finished pipeline, keyed by URL.
type ExtractionJob struct {
	ID                string
	URL               string
	Locale            string
	Notes             string
	Status            JobStatus
	Progress          int
	CurrentStep       string
	Message           string
	EstimatedDuration int // seconds
	RecipeID          *string
	ErrorMessage      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// JobProgress is the partial update written at every stage boundary.
type JobProgress struct {
	Progress          int
	CurrentStep       string
	Message           string
	EstimatedDuration int
}
