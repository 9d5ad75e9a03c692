package response

import (
	"time"

	"github.com/user/recipe-service/internal/entity"
)

type ErrorResponse struct {
	Error     string           `json:"error"`
	ErrorKind entity.ErrorKind `json:"errorKind,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// ProgressResponse is the payload of a `progress` SSE frame.
type ProgressResponse struct {
	Step              entity.Step `json:"step"`
	Progress          int         `json:"progress"`
	Message           string      `json:"message"`
	ElapsedTime       int         `json:"elapsedTime"`
	EstimatedDuration int         `json:"estimatedDuration"`
}

func NewProgressResponse(ev entity.ProgressEvent) ProgressResponse {
	return ProgressResponse{
		Step:              ev.Step,
		Progress:          ev.Progress,
		Message:           ev.Message,
		ElapsedTime:       ev.ElapsedSeconds,
		EstimatedDuration: ev.EstimatedTotalSeconds,
	}
}

// ExtractionResponse is returned for both a finished and an already stored
// extraction. Exactly one of IsExisting and Complete is set.
type ExtractionResponse struct {
	ID         string            `json:"id"`
	Recipe     entity.RecipeJSON `json:"recipe"`
	IsExisting bool              `json:"isExisting,omitempty"`
	Complete   bool              `json:"complete,omitempty"`
}

// JobStatusResponse is a DTO for entity.ExtractionJob plus replayed events.
type JobStatusResponse struct {
	Exists            bool               `json:"exists"`
	Status            entity.JobStatus   `json:"status,omitempty"`
	Progress          int                `json:"progress"`
	CurrentStep       string             `json:"currentStep,omitempty"`
	Message           string             `json:"message,omitempty"`
	EstimatedDuration int                `json:"estimatedDuration,omitempty"`
	RecipeID          *string            `json:"recipeId,omitempty"`
	ErrorMessage      *string            `json:"errorMessage,omitempty"`
	CreatedAt         *time.Time         `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time         `json:"updatedAt,omitempty"`
	CompletedAt       *time.Time         `json:"completedAt,omitempty"`
	Events            []ProgressResponse `json:"events,omitempty"`
}

func NewJobStatusResponse(job *entity.ExtractionJob, events []entity.ProgressEvent) JobStatusResponse {
	resp := JobStatusResponse{
		Exists:            true,
		Status:            job.Status,
		Progress:          job.Progress,
		CurrentStep:       job.CurrentStep,
		Message:           job.Message,
		EstimatedDuration: job.EstimatedDuration,
		RecipeID:          job.RecipeID,
		ErrorMessage:      job.ErrorMessage,
		CreatedAt:         &job.CreatedAt,
		UpdatedAt:         &job.UpdatedAt,
		CompletedAt:       job.CompletedAt,
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, NewProgressResponse(ev))
	}
	return resp
}

// RecipeResponse is a DTO for entity.RecipeRecord.
type RecipeResponse struct {
	ID                 string                   `json:"id"`
	SourceURL          string                   `json:"sourceUrl"`
	SourceType         entity.SourceType        `json:"sourceType"`
	Recipe             entity.RecipeJSON        `json:"recipe"`
	RawText            string                   `json:"rawText,omitempty"`
	ThumbnailURL       string                   `json:"thumbnailUrl,omitempty"`
	ExtractionMethod   entity.ExtractionMethod  `json:"extractionMethod"`
	ExtractionQuality  entity.ExtractionQuality `json:"extractionQuality"`
	HasAudioTranscript bool                     `json:"hasAudioTranscript"`
	CreatedAt          time.Time                `json:"createdAt"`
}

// NewRecipeResponse maps a record. The raw LLM input is only included when
// withRawText is set.
func NewRecipeResponse(rec *entity.RecipeRecord, withRawText bool) RecipeResponse {
	resp := RecipeResponse{
		ID:                 rec.ID,
		SourceURL:          rec.SourceURL,
		SourceType:         rec.SourceType,
		Recipe:             rec.Extracted,
		ThumbnailURL:       rec.ThumbnailURL,
		ExtractionMethod:   rec.ExtractionMethod,
		ExtractionQuality:  rec.ExtractionQuality,
		HasAudioTranscript: rec.HasAudioTranscript,
		CreatedAt:          rec.CreatedAt,
	}
	if withRawText {
		resp.RawText = rec.RawText
	}
	return resp
}

type RecipeListResponse struct {
	Recipes []RecipeResponse `json:"recipes"`
	Count   int              `json:"count"`
}

type DeleteRecipeResponse struct {
	Success   bool   `json:"success"`
	DeletedID string `json:"deletedId"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
