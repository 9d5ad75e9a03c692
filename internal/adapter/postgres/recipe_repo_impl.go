package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

const uniqueViolation = "23505"

const recipeColumns = `id, source_url, source_type, raw_text, extracted, thumbnail_url,
	extraction_method, extraction_quality, has_audio_transcript, created_at`

// RecipeRepoImpl provides a concrete implementation for the RecipeRepository interface using PostgreSQL.
type RecipeRepoImpl struct {
	db *pgxpool.Pool
}

// NewRecipeRepo creates a new instance of RecipeRepoImpl.
func NewRecipeRepo(db *pgxpool.Pool) *RecipeRepoImpl {
	return &RecipeRepoImpl{db: db}
}

// FindByURL retrieves the recipe extracted from a source URL.
func (r *RecipeRepoImpl) FindByURL(ctx context.Context, sourceURL string) (*entity.RecipeRecord, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE source_url = $1;`
	return scanRecipe(r.db.QueryRow(ctx, query, sourceURL))
}

// FindByID retrieves one recipe by its id.
func (r *RecipeRepoImpl) FindByID(ctx context.Context, id string) (*entity.RecipeRecord, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1;`
	return scanRecipe(r.db.QueryRow(ctx, query, id))
}

// Insert stores a new recipe. The unique source_url constraint turns a
// concurrent duplicate into repository.ErrAlreadyExists.
func (r *RecipeRepoImpl) Insert(ctx context.Context, rec *entity.RecipeRecord) error {
	extracted, err := json.Marshal(rec.Extracted)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO recipes (id, source_url, source_type, raw_text, extracted, thumbnail_url,
			extraction_method, extraction_quality, has_audio_transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		rec.SourceURL,
		string(rec.SourceType),
		rec.RawText,
		extracted,
		rec.ThumbnailURL,
		string(rec.ExtractionMethod),
		string(rec.ExtractionQuality),
		rec.HasAudioTranscript,
		rec.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrAlreadyExists
	}
	return err
}

// UpdateExtracted replaces the structured recipe of an existing row.
func (r *RecipeRepoImpl) UpdateExtracted(ctx context.Context, id string, recipe entity.RecipeJSON) error {
	extracted, err := json.Marshal(recipe)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE recipes SET extracted = $2 WHERE id = $1;`, id, extracted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns recipes newest first. A non-empty Query matches titles
// case-insensitively.
func (r *RecipeRepoImpl) List(ctx context.Context, filter entity.RecipeFilter) ([]*entity.RecipeRecord, error) {
	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE $1 = '' OR extracted->>'title' ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, filter.Query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]*entity.RecipeRecord, 0)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// DeleteCascade removes the job rows referencing the recipe, then the recipe,
// in one transaction.
func (r *RecipeRepoImpl) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM extraction_jobs WHERE recipe_id = $1;`, id); err != nil {
		return fmt.Errorf("failed to delete extraction jobs: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM recipes WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanRecipe(row pgx.Row) (*entity.RecipeRecord, error) {
	var (
		rec       entity.RecipeRecord
		extracted []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.SourceURL,
		&rec.SourceType,
		&rec.RawText,
		&extracted,
		&rec.ThumbnailURL,
		&rec.ExtractionMethod,
		&rec.ExtractionQuality,
		&rec.HasAudioTranscript,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Rows written before components existed decode through the legacy shape.
	if rec.Extracted, err = entity.DecodeRecipe(extracted); err != nil {
		return nil, err
	}
	return &rec, nil
}
