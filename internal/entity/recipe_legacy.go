package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyRecipe is the version 1 shape: one flat ingredient list and one flat
// step list, written before recipes were split into components.
type LegacyRecipe struct {
	Title              string       `json:"title"`
	SourceURL          string       `json:"sourceUrl"`
	Servings           *int         `json:"servings"`
	Times              RecipeTimes  `json:"times"`
	Ingredients        []Ingredient `json:"ingredients"`
	Steps              []string     `json:"steps"`
	Equipment          []string     `json:"equipment"`
	Notes              *string      `json:"notes"`
	Tags               []string     `json:"tags"`
	TotalEstimatedCost *float64     `json:"totalEstimatedCost"`
	CostLocation       string       `json:"costLocation"`
	Nutrition          Nutrition    `json:"nutrition"`
}

// MigrateLegacy converts a version 1 recipe into the component shape.
// The whole recipe becomes a single component named after the title.
func MigrateLegacy(l LegacyRecipe) RecipeJSON {
	name := strings.TrimSpace(l.Title)
	if name == "" {
		name = "Main Dish"
	}
	ingredients := l.Ingredients
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	steps := l.Steps
	if steps == nil {
		steps = []string{}
	}

	r := RecipeJSON{
		SchemaVersion:      RecipeSchemaVersion,
		Title:              l.Title,
		SourceURL:          l.SourceURL,
		Servings:           l.Servings,
		Times:              l.Times,
		Components:         []RecipeComponent{{Name: name, Ingredients: ingredients, Steps: steps}},
		Equipment:          l.Equipment,
		Notes:              l.Notes,
		Tags:               l.Tags,
		TotalEstimatedCost: l.TotalEstimatedCost,
		CostLocation:       l.CostLocation,
		Nutrition:          l.Nutrition,
	}
	r.Flatten()
	return r
}

// DecodeRecipe reads a stored recipe of either version and returns the
// current shape.
func DecodeRecipe(data []byte) (RecipeJSON, error) {
	var peek struct {
		SchemaVersion int               `json:"schemaVersion"`
		Components    []json.RawMessage `json:"components"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return RecipeJSON{}, fmt.Errorf("decode recipe: %w", err)
	}

	if peek.SchemaVersion >= RecipeSchemaVersion || len(peek.Components) > 0 {
		var r RecipeJSON
		if err := json.Unmarshal(data, &r); err != nil {
			return RecipeJSON{}, fmt.Errorf("decode recipe: %w", err)
		}
		r.SchemaVersion = RecipeSchemaVersion
		if len(r.Ingredients) == 0 && len(r.Steps) == 0 {
			r.Flatten()
		}
		return r, nil
	}

	var legacy LegacyRecipe
	if err := json.Unmarshal(data, &legacy); err != nil {
		return RecipeJSON{}, fmt.Errorf("decode legacy recipe: %w", err)
	}
	return MigrateLegacy(legacy), nil
}
