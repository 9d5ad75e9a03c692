package repository

import (
	"context"

	"github.com/user/recipe-service/internal/entity"
)

// RecipeRepository defines the persistence boundary for extracted recipes.
type RecipeRepository interface {
	// FindByURL returns the recipe extracted from sourceURL, or ErrNotFound.
	FindByURL(ctx context.Context, sourceURL string) (*entity.RecipeRecord, error)
	// FindByID returns one recipe, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*entity.RecipeRecord, error)
	// Insert stores a new recipe. A duplicate source URL yields ErrAlreadyExists.
	Insert(ctx context.Context, record *entity.RecipeRecord) error
	// UpdateExtracted replaces the structured recipe of an existing row.
	UpdateExtracted(ctx context.Context, id string, recipe entity.RecipeJSON) error
	// List returns recipes newest first.
	List(ctx context.Context, filter entity.RecipeFilter) ([]*entity.RecipeRecord, error)
	// DeleteCascade removes the recipe and every job row referencing it.
	DeleteCascade(ctx context.Context, id string) error
}
