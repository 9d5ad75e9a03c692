package entity

// RecipeSchemaVersion is the version tag written with every extracted recipe.
// Version 1 is the flat ingredients/steps shape, see LegacyRecipe.
const RecipeSchemaVersion = 2

// Ingredient is a single line of a recipe component.
// Quantity and Unit stay nil for items such as "salt to taste".
type Ingredient struct {
	Quantity      *string  `json:"quantity"`
	Unit          *string  `json:"unit"`
	Name          string   `json:"name"`
	Notes         *string  `json:"notes"`
	EstimatedCost *float64 `json:"estimatedCost"`
}

// RecipeComponent is a named sub-preparation of a dish, e.g. "Sauce".
type RecipeComponent struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Notes       *string      `json:"notes"`
}

type RecipeTimes struct {
	Prep  *string `json:"prep"`
	Cook  *string `json:"cook"`
	Total *string `json:"total"`
}

// NutritionFacts holds calories, macros in grams and sodium in milligrams.
type NutritionFacts struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
	Fiber    *float64 `json:"fiber"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
}

type Nutrition struct {
	PerServing NutritionFacts `json:"perServing"`
	Total      NutritionFacts `json:"total"`
}

// RecipeJSON is the validated structured recipe stored in recipes.extracted.
// Ingredients and Steps are derived from Components, see Flatten.
type RecipeJSON struct {
	SchemaVersion      int               `json:"schemaVersion"`
	Title              string            `json:"title"`
	SourceURL          string            `json:"sourceUrl"`
	Servings           *int              `json:"servings"`
	Times              RecipeTimes       `json:"times"`
	Components         []RecipeComponent `json:"components"`
	Ingredients        []Ingredient      `json:"ingredients"`
	Steps              []string          `json:"steps"`
	Equipment          []string          `json:"equipment"`
	Notes              *string           `json:"notes"`
	Tags               []string          `json:"tags"`
	TotalEstimatedCost *float64          `json:"totalEstimatedCost"`
	CostLocation       string            `json:"costLocation"`
	Nutrition          Nutrition         `json:"nutrition"`
}

// Flatten rebuilds the legacy Ingredients and Steps arrays from Components.
// Steps get a "<component>: " prefix when the recipe has more than one component.
func (r *RecipeJSON) Flatten() {
	ingredients := make([]Ingredient, 0)
	steps := make([]string, 0)
	prefix := len(r.Components) > 1
	for _, c := range r.Components {
		ingredients = append(ingredients, c.Ingredients...)
		for _, s := range c.Steps {
			if prefix {
				s = c.Name + ": " + s
			}
			steps = append(steps, s)
		}
	}
	r.Ingredients = ingredients
	r.Steps = steps
}
