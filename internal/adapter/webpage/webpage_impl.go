package webpage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

// Fetcher turns an arbitrary recipe web page into VideoContent.
type Fetcher struct {
	renderer repository.PageRenderer
}

func NewFetcher(renderer repository.PageRenderer) *Fetcher {
	return &Fetcher{renderer: renderer}
}

// Fetch renders pageURL and extracts its text. JSON-LD recipe data, when
// present, leads the combined text.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*entity.VideoContent, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	html, err := f.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	page, err := ParsePage(html, u)
	if err != nil {
		return nil, err
	}

	content := &entity.VideoContent{
		Title:        page.Title,
		Description:  page.Description,
		ThumbnailURL: page.ImageURL,
	}

	var parts []string
	if page.Title != "" {
		parts = append(parts, page.Title)
	}
	if page.Description != "" {
		parts = append(parts, page.Description)
	}
	if page.Recipe != nil {
		parts = append(parts, page.Recipe.Text())
	}
	if page.Article != "" {
		parts = append(parts, page.Article)
	}
	content.CombinedText = strings.Join(parts, "\n\n")
	return content, nil
}
