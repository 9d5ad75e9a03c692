package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RecipeService reads and deletes stored recipes.
type RecipeService interface {
	Get(ctx context.Context, id string) (*entity.RecipeRecord, error)
	List(ctx context.Context, filter entity.RecipeFilter) ([]*entity.RecipeRecord, error)
	Delete(ctx context.Context, id string) error
}

type recipeUseCase struct {
	recipes     repository.RecipeRepository
	progressLog repository.ProgressLogRepository
}

// NewRecipeService creates a RecipeService. progressLog may be nil.
func NewRecipeService(recipes repository.RecipeRepository, progressLog repository.ProgressLogRepository) RecipeService {
	return &recipeUseCase{recipes: recipes, progressLog: progressLog}
}

func (uc *recipeUseCase) Get(ctx context.Context, id string) (*entity.RecipeRecord, error) {
	return uc.recipes.FindByID(ctx, id)
}

func (uc *recipeUseCase) List(ctx context.Context, filter entity.RecipeFilter) ([]*entity.RecipeRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.recipes.List(ctx, filter)
}

// Delete removes the recipe together with its job rows. Returns
// repository.ErrNotFound for an unknown id.
func (uc *recipeUseCase) Delete(ctx context.Context, id string) error {
	record, err := uc.recipes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.recipes.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recipe %s: %w", id, err)
	}
	if uc.progressLog != nil {
		if err := uc.progressLog.Reset(ctx, record.SourceURL); err != nil {
			slog.Warn("Failed to clear progress log after delete", "url", record.SourceURL, "error", err)
		}
	}
	slog.Info("Recipe deleted", "id", id, "url", record.SourceURL)
	return nil
}
