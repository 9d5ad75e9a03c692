package usecase

import (
	"fmt"
	"strings"
)

// PromptVariant selects the instruction set sent to the model.
type PromptVariant int

const (
	// PromptFull is the complete rule set used on the first attempt.
	PromptFull PromptVariant = iota
	// PromptSimplified spells out the exact JSON layout and little else.
	PromptSimplified
)

const extractionSystemPrompt = "You are a culinary extraction engine. You read cooking video content and answer with one JSON object describing one complete recipe. Answer with JSON only, no prose and no code fences."

// regionalPricing gives the model a rough multiplier for well-known locales.
var regionalPricing = []string{
	"US/Canada: standard baseline pricing",
	"Guam: 25-40% above mainland US (import costs)",
	"Hawaii: 20-30% above mainland US (shipping costs)",
	"UK: convert from pounds (1 GBP ~ 1.25 USD), generally 15-25% higher",
	"Australia: convert from AUD (1 AUD ~ 0.65 USD), similar to US prices",
	"Japan: convert from yen (150 JPY ~ 1 USD), use local market prices",
	"EU: convert from euros (1 EUR ~ 1.10 USD), varies by country",
}

const fullPromptTemplate = `From the video content below, extract ONE COMPLETE RECIPE organised into components.

CONTENT (video title, description, captions or transcript, user notes):
%[2]s

RULES:
- Set "sourceUrl" to exactly: %[1]s
- Read all of the content before answering.
- COMPONENTS:
  * If the dish has several distinct preparations (meatloaf + glaze, pasta + sauce, chicken + marinade), make one component per preparation, each with its own ingredients and steps.
  * A simple single dish is one component named after the dish.
  * A component may have an empty ingredients array when it only holds steps (e.g. "Final Assembly").
  * Every element of "components" MUST be a complete object: {"name": string, "ingredients": array, "steps": array, "notes": string or null}.
  * WRONG: [{"name": "Main Dish"}, "ingredients", [...], "steps", [...]]
  * WRONG: ["Main Dish", {"ingredients": [...]}]
- INGREDIENTS:
  * "quantity" is a string such as "2", "1/2" or "1.5", or null when no quantity is given. Never the string "null".
  * "unit" is a string such as "cups" or "tbsp", or null. Items like "salt to taste" have null quantity and unit.
  * "estimatedCost" is a realistic grocery price in USD for the stated quantity in %[3]s, rounded to the nearest 0.25. Use null only when the ingredient is completely unclear.
  * Regional guidance, adjust other locations by their cost of living:
%[4]s
- Set "totalEstimatedCost" to the sum of all ingredient costs and "costLocation" to exactly "%[3]s".
- TIMES: "prep", "cook" and "total" as strings like "15 min" or "1 hour". Total includes chilling, resting and setting time. Use null only when there is no timing information at all.
- SERVINGS: estimate a whole number from the quantities (1 lb pasta serves 4-6). Use null only when impossible.
- NUTRITION: ALWAYS fill both "perServing" and "total" with calories, protein, carbs, fat, fiber, sugar (grams) and sodium (milligrams), based on USDA reference values. perServing = total / servings; when servings is unknown estimate a reasonable portion anyway. Never leave both views empty.
- "equipment" is an array of strings, only for tools mentioned explicitly.
- TAGS: 5 to 10 lowercase, hyphenated tags covering main ingredient, cuisine, meal type, cooking method, difficulty (easy, intermediate, advanced), diet (vegetarian, gluten-free, ...) and time (quick under 30 min, medium 30-60 min, long over 1 hour).
- TITLE: use the video title when given, otherwise name the dish specifically. Never a generic title such as "Recipe from TikTok".
- Steps are ordered and actionable. When details are unclear make reasonable assumptions instead of leaving arrays empty.

Answer with this JSON layout:
{"title": string, "sourceUrl": string, "servings": number|null, "times": {"prep": string|null, "cook": string|null, "total": string|null}, "components": [{"name": string, "ingredients": [{"quantity": string|null, "unit": string|null, "name": string, "notes": string|null, "estimatedCost": number|null}], "steps": [string], "notes": string|null}], "equipment": [string], "notes": string|null, "tags": [string], "totalEstimatedCost": number|null, "costLocation": string, "nutrition": {"perServing": {...}, "total": {...}}}`

const simplifiedPromptTemplate = `Extract recipe data from this content and return ONLY valid JSON.

Content: %[2]s

Return a JSON object with EXACTLY this structure:
{
  "title": "Recipe Name",
  "sourceUrl": "%[1]s",
  "servings": 4,
  "times": {"prep": "10 min", "cook": "15 min", "total": "25 min"},
  "components": [
    {
      "name": "Main Component",
      "ingredients": [{"quantity": "1", "unit": "cup", "name": "flour", "notes": null, "estimatedCost": 1.0}],
      "steps": ["Step 1", "Step 2"],
      "notes": null
    }
  ],
  "equipment": ["pan", "bowl"],
  "notes": null,
  "tags": ["easy", "quick"],
  "totalEstimatedCost": 5.0,
  "costLocation": "%[3]s",
  "nutrition": {"perServing": {"calories": 200, "protein": 10, "carbs": 30, "fat": 5, "fiber": 2, "sugar": 1, "sodium": 300}, "total": {"calories": 800, "protein": 40, "carbs": 120, "fat": 20, "fiber": 8, "sugar": 4, "sodium": 1200}}
}

Each element of "components" must be one complete object with name, ingredients, steps and notes.`

// BuildPrompt renders the instruction prompt for the given variant. content
// is expected to be sanitized already.
func BuildPrompt(variant PromptVariant, sourceURL, content, locale string) string {
	if variant == PromptSimplified {
		return fmt.Sprintf(simplifiedPromptTemplate, sourceURL, content, locale)
	}
	var pricing strings.Builder
	for i, line := range regionalPricing {
		if i > 0 {
			pricing.WriteByte('\n')
		}
		pricing.WriteString("    - ")
		pricing.WriteString(line)
	}
	return fmt.Sprintf(fullPromptTemplate, sourceURL, content, locale, pricing.String())
}
