package webpage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/user/recipe-service/pkg/utils"
)

const maxArticleChars = 12000

// Page is what the parser pulls out of one HTML document.
type Page struct {
	Title       string
	Description string
	ImageURL    string
	Article     string
	Recipe      *StructuredRecipe
}

// StructuredRecipe is the subset of a schema.org Recipe JSON-LD block the
// prompt uses.
type StructuredRecipe struct {
	Name         string
	Yield        string
	Ingredients  []string
	Instructions []string
}

// Text renders the recipe as labelled plain text.
func (r *StructuredRecipe) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "RECIPE: %s\n", r.Name)
	}
	if r.Yield != "" {
		fmt.Fprintf(&b, "YIELD: %s\n", r.Yield)
	}
	if len(r.Ingredients) > 0 {
		b.WriteString("INGREDIENTS:\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&b, "- %s\n", ing)
		}
	}
	if len(r.Instructions) > 0 {
		b.WriteString("INSTRUCTIONS:\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	return strings.TrimSpace(b.String())
}

// ParsePage extracts metadata, JSON-LD recipe data and the readable article
// text from html fetched from pageURL.
func ParsePage(html string, pageURL *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{
		Title:       firstNonEmpty(metaContent(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "description")),
	}

	if img := metaContent(doc, "og:image"); img != "" {
		if abs, err := utils.ToAbsoluteURL(pageURL, img); err == nil {
			page.ImageURL = abs
		}
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if r := findRecipe([]byte(s.Text())); r != nil {
			page.Recipe = r
			return false
		}
		return true
	})

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		slog.Debug("Readability failed", "url", pageURL.String(), "error", err)
	} else {
		page.Article = truncate(collapseSpace(article.TextContent), maxArticleChars)
		if page.Title == "" {
			page.Title = article.Title
		}
		if page.Description == "" {
			page.Description = article.Excerpt
		}
		if page.ImageURL == "" {
			page.ImageURL = article.Image
		}
	}

	return page, nil
}

func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// findRecipe walks a JSON-LD payload (object, array or @graph) for the first
// node typed Recipe.
func findRecipe(raw []byte) *StructuredRecipe {
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil
	}
	return walkRecipe(node)
}

func walkRecipe(node any) *StructuredRecipe {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if r := walkRecipe(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if isRecipeType(v["@type"]) {
			return recipeFromNode(v)
		}
		if graph, ok := v["@graph"]; ok {
			return walkRecipe(graph)
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]any) *StructuredRecipe {
	r := &StructuredRecipe{
		Name:         stringValue(node["name"]),
		Yield:        stringValue(node["recipeYield"]),
		Ingredients:  stringList(node["recipeIngredient"]),
		Instructions: instructionList(node["recipeInstructions"]),
	}
	if len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
		return nil
	}
	return r
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return collapseSpace(s)
	case float64:
		return fmt.Sprintf("%g", s)
	case []any:
		if len(s) > 0 {
			return stringValue(s[0])
		}
	}
	return ""
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := stringValue(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// instructionList flattens plain strings, HowToStep and HowToSection nodes.
func instructionList(v any) []string {
	var out []string
	switch s := v.(type) {
	case string:
		if text := collapseSpace(s); text != "" {
			out = append(out, text)
		}
	case []any:
		for _, item := range s {
			out = append(out, instructionList(item)...)
		}
	case map[string]any:
		if items, ok := s["itemListElement"]; ok {
			return instructionList(items)
		}
		if text := stringValue(s["text"]); text != "" {
			out = append(out, text)
		} else if name := stringValue(s["name"]); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
