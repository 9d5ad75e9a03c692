package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/user/recipe-service/internal/entity"
)

const (
	defaultPortions = 4
	maxTags         = 10
	costStep        = 0.25
)

// ComponentShapeError reports that the model flattened or mis-nested the
// components array. It is the only validation error worth a repair retry.
type ComponentShapeError struct {
	Index  int // -1 when the array itself is malformed
	Reason string
}

func (e *ComponentShapeError) Error() string {
	if e.Index < 0 {
		return "components: " + e.Reason
	}
	return fmt.Sprintf("components[%d]: %s", e.Index, e.Reason)
}

// SchemaValidationError reports model output that cannot be coerced into a
// recipe.
type SchemaValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	msg := "schema validation failed: " + e.Field + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

type rawRecipe struct {
	Title              string            `json:"title"`
	Servings           json.RawMessage   `json:"servings"`
	Times              map[string]any    `json:"times"`
	Components         json.RawMessage   `json:"components"`
	Equipment          []json.RawMessage `json:"equipment"`
	Notes              json.RawMessage   `json:"notes"`
	Tags               []string          `json:"tags"`
	TotalEstimatedCost json.RawMessage   `json:"totalEstimatedCost"`
	Nutrition          json.RawMessage   `json:"nutrition"`
}

type rawComponent struct {
	Name        string          `json:"name"`
	Ingredients json.RawMessage `json:"ingredients"`
	Steps       json.RawMessage `json:"steps"`
	Notes       json.RawMessage `json:"notes"`
}

type rawIngredient struct {
	Quantity      json.RawMessage `json:"quantity"`
	Unit          json.RawMessage `json:"unit"`
	Name          string          `json:"name"`
	Notes         json.RawMessage `json:"notes"`
	EstimatedCost json.RawMessage `json:"estimatedCost"`
}

// ParseRecipe validates raw model output strictly and returns the normalized
// recipe with derived fields filled in.
func ParseRecipe(output, sourceURL, locale string) (entity.RecipeJSON, error) {
	body := stripFences(output)

	var raw rawRecipe
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return entity.RecipeJSON{}, &SchemaValidationError{Field: "$", Reason: "output is not a JSON object", Err: err}
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return entity.RecipeJSON{}, &SchemaValidationError{Field: "title", Reason: "must not be empty"}
	}

	components, err := parseComponents(raw.Components)
	if err != nil {
		return entity.RecipeJSON{}, err
	}

	notes, err := nullableString(raw.Notes)
	if err != nil {
		return entity.RecipeJSON{}, &SchemaValidationError{Field: "notes", Reason: err.Error()}
	}

	recipe := entity.RecipeJSON{
		SchemaVersion: entity.RecipeSchemaVersion,
		Title:         title,
		SourceURL:     sourceURL,
		Servings:      parseServings(raw.Servings),
		Times: entity.RecipeTimes{
			Prep:  timeField(raw.Times, "prep"),
			Cook:  timeField(raw.Times, "cook"),
			Total: timeField(raw.Times, "total"),
		},
		Components:         components,
		Equipment:          parseEquipment(raw.Equipment),
		Notes:              notes,
		Tags:               normalizeTags(raw.Tags),
		TotalEstimatedCost: nullableNumber(raw.TotalEstimatedCost),
		CostLocation:       locale,
		Nutrition:          parseNutrition(raw.Nutrition),
	}

	normalizeCosts(&recipe)
	if err := completeNutrition(&recipe.Nutrition, recipe.Servings); err != nil {
		return entity.RecipeJSON{}, err
	}
	recipe.Flatten()
	return recipe, nil
}

func parseComponents(data json.RawMessage) ([]entity.RecipeComponent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, &ComponentShapeError{Index: -1, Reason: "missing"}
	}
	if data[0] != '[' {
		return nil, &ComponentShapeError{Index: -1, Reason: "expected array, received " + jsonKind(data)}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &ComponentShapeError{Index: -1, Reason: err.Error()}
	}
	if len(elems) == 0 {
		return nil, &SchemaValidationError{Field: "components", Reason: "at least one component is required"}
	}

	components := make([]entity.RecipeComponent, 0, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if kind := jsonKind(elem); kind != "object" {
			return nil, &ComponentShapeError{Index: i, Reason: "expected object, received " + kind}
		}
		var rc rawComponent
		if err := json.Unmarshal(elem, &rc); err != nil {
			return nil, &ComponentShapeError{Index: i, Reason: err.Error()}
		}
		c, err := buildComponent(i, rc)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

func buildComponent(i int, rc rawComponent) (entity.RecipeComponent, error) {
	name := strings.TrimSpace(rc.Name)
	if name == "" {
		return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: "name is missing"}
	}
	if jsonKind(rc.Ingredients) != "array" {
		return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: "ingredients: expected array, received " + jsonKind(rc.Ingredients)}
	}
	if jsonKind(rc.Steps) != "array" {
		return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: "steps: expected array, received " + jsonKind(rc.Steps)}
	}

	var rawIngredients []json.RawMessage
	if err := json.Unmarshal(rc.Ingredients, &rawIngredients); err != nil {
		return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: err.Error()}
	}
	ingredients := make([]entity.Ingredient, 0, len(rawIngredients))
	for j, ri := range rawIngredients {
		if kind := jsonKind(ri); kind != "object" {
			return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: fmt.Sprintf("ingredients[%d]: expected object, received %s", j, kind)}
		}
		ing, err := buildIngredient(ri)
		if err != nil {
			return entity.RecipeComponent{}, &SchemaValidationError{Field: fmt.Sprintf("components[%d].ingredients[%d]", i, j), Reason: err.Error()}
		}
		ingredients = append(ingredients, ing)
	}

	var steps []string
	if err := json.Unmarshal(rc.Steps, &steps); err != nil {
		return entity.RecipeComponent{}, &ComponentShapeError{Index: i, Reason: "steps: expected array of strings"}
	}
	cleaned := steps[:0]
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return entity.RecipeComponent{}, &SchemaValidationError{Field: fmt.Sprintf("components[%d].steps", i), Reason: "at least one step is required"}
	}

	notes, err := nullableString(rc.Notes)
	if err != nil {
		return entity.RecipeComponent{}, &SchemaValidationError{Field: fmt.Sprintf("components[%d].notes", i), Reason: err.Error()}
	}

	return entity.RecipeComponent{Name: name, Ingredients: ingredients, Steps: cleaned, Notes: notes}, nil
}

func buildIngredient(data json.RawMessage) (entity.Ingredient, error) {
	var ri rawIngredient
	if err := json.Unmarshal(data, &ri); err != nil {
		return entity.Ingredient{}, err
	}
	name := strings.TrimSpace(ri.Name)
	if name == "" {
		return entity.Ingredient{}, fmt.Errorf("name must not be empty")
	}
	quantity, err := coerceString(ri.Quantity)
	if err != nil {
		return entity.Ingredient{}, fmt.Errorf("quantity: %w", err)
	}
	unit, err := nullableString(ri.Unit)
	if err != nil {
		return entity.Ingredient{}, fmt.Errorf("unit: %w", err)
	}
	notes, err := nullableString(ri.Notes)
	if err != nil {
		return entity.Ingredient{}, fmt.Errorf("notes: %w", err)
	}
	return entity.Ingredient{
		Quantity:      quantity,
		Unit:          unit,
		Name:          name,
		Notes:         notes,
		EstimatedCost: nullableNumber(ri.EstimatedCost),
	}, nil
}

// stripFences removes markdown code fences and any text around the JSON object.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func jsonKind(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "undefined"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

func isNullish(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "" || s == "null" || s == "none" || s == "n/a"
}

// nullableString accepts a string or null. The literal strings "null" and ""
// map to nil.
func nullableString(data json.RawMessage) (*string, error) {
	switch jsonKind(data) {
	case "undefined", "null":
		return nil, nil
	case "string":
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		if isNullish(s) {
			return nil, nil
		}
		s = strings.TrimSpace(s)
		return &s, nil
	default:
		return nil, fmt.Errorf("expected string or null, received %s", jsonKind(data))
	}
}

// coerceString is nullableString that also accepts numbers.
func coerceString(data json.RawMessage) (*string, error) {
	if jsonKind(data) == "number" {
		s := string(bytes.TrimSpace(data))
		return &s, nil
	}
	return nullableString(data)
}

func nullableNumber(data json.RawMessage) *float64 {
	var f float64
	switch jsonKind(data) {
	case "number":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil
		}
	case "string":
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "$"), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseServings(data json.RawMessage) *int {
	f := nullableNumber(data)
	if f == nil || *f < 1 {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func timeField(times map[string]any, key string) *string {
	s, ok := times[key].(string)
	if !ok || isNullish(s) {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

// parseEquipment keeps string entries and the "name" of object entries.
func parseEquipment(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch jsonKind(item) {
		case "string":
			_ = json.Unmarshal(item, &s)
		case "object":
			var obj struct {
				Name string `json:"name"`
			}
			_ = json.Unmarshal(item, &obj)
			s = obj.Name
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(strings.ToLower(t)), "-")
		t = strings.Trim(t, "-#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

// normalizeCosts rounds ingredient costs to the nearest quarter and fills in
// the total when the model left it out.
func normalizeCosts(r *entity.RecipeJSON) {
	var sum float64
	priced := false
	for ci := range r.Components {
		for ii := range r.Components[ci].Ingredients {
			ing := &r.Components[ci].Ingredients[ii]
			if ing.EstimatedCost == nil {
				continue
			}
			if *ing.EstimatedCost < 0 {
				ing.EstimatedCost = nil
				continue
			}
			c := roundTo(*ing.EstimatedCost, costStep)
			ing.EstimatedCost = &c
			sum += c
			priced = true
		}
	}
	if r.TotalEstimatedCost == nil && priced {
		r.TotalEstimatedCost = &sum
	}
	if r.TotalEstimatedCost != nil {
		t := roundTo(*r.TotalEstimatedCost, costStep)
		r.TotalEstimatedCost = &t
	}
}

// completeNutrition derives whichever nutrition view is missing from the
// other one. Unknown servings fall back to defaultPortions.
func completeNutrition(n *entity.Nutrition, servings *int) error {
	portions := float64(defaultPortions)
	if servings != nil && *servings > 0 {
		portions = float64(*servings)
	}

	per := nutritionFields(&n.PerServing)
	total := nutritionFields(&n.Total)
	for i := range per {
		step := nutritionRounding[i]
		switch {
		case *per[i] == nil && *total[i] != nil:
			v := roundTo(**total[i]/portions, step)
			*per[i] = &v
		case *total[i] == nil && *per[i] != nil:
			v := roundTo(**per[i]*portions, step)
			*total[i] = &v
		}
	}

	if n.PerServing.Calories == nil || n.Total.Calories == nil {
		return &SchemaValidationError{Field: "nutrition", Reason: "calories missing from both perServing and total"}
	}
	return nil
}

// parseNutrition reads both nutrition views, coercing each fact like any
// other numeric field. Facts that cannot be read are left unknown.
func parseNutrition(data json.RawMessage) entity.Nutrition {
	var views struct {
		PerServing json.RawMessage `json:"perServing"`
		Total      json.RawMessage `json:"total"`
	}
	if jsonKind(data) != "object" || json.Unmarshal(data, &views) != nil {
		return entity.Nutrition{}
	}
	return entity.Nutrition{
		PerServing: parseNutritionFacts(views.PerServing),
		Total:      parseNutritionFacts(views.Total),
	}
}

func parseNutritionFacts(data json.RawMessage) entity.NutritionFacts {
	var facts entity.NutritionFacts
	var raw map[string]json.RawMessage
	if jsonKind(data) != "object" || json.Unmarshal(data, &raw) != nil {
		return facts
	}
	fields := nutritionFields(&facts)
	for i, key := range nutritionKeys {
		*fields[i] = nullableNumber(raw[key])
	}
	return facts
}

var nutritionKeys = [7]string{"calories", "protein", "carbs", "fat", "fiber", "sugar", "sodium"}

// Calories to 5, macros to 0.5 g, sodium to 10 mg.
var nutritionRounding = [7]float64{5, 0.5, 0.5, 0.5, 0.5, 0.5, 10}

func nutritionFields(f *entity.NutritionFacts) [7]**float64 {
	return [7]**float64{&f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber, &f.Sugar, &f.Sodium}
}
