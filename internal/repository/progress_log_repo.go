package repository

import (
	"context"

	"github.com/user/recipe-service/internal/entity"
)

// ProgressLogRepository keeps the recent progress events of a URL so that a
// client reattaching by polling can replay what it missed.
type ProgressLogRepository interface {
	// Append adds an event to the end of the log.
	Append(ctx context.Context, url string, event entity.ProgressEvent) error
	// List returns the logged events in emission order.
	List(ctx context.Context, url string) ([]entity.ProgressEvent, error)
	// Reset clears the log before a new run.
	Reset(ctx context.Context, url string) error
}
