package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/pkg/metrics"
)

// SourceFetcher extracts content for one kind of source.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.VideoContent, error)
}

// Dispatcher routes a URL to the fetcher registered for its source type.
// Content is best-effort: failures are logged and yield empty content.
type Dispatcher struct {
	fetchers map[entity.SourceType]SourceFetcher
}

func NewDispatcher(fetchers map[entity.SourceType]SourceFetcher) *Dispatcher {
	return &Dispatcher{fetchers: fetchers}
}

// FetchContent never returns an error.
func (d *Dispatcher) FetchContent(ctx context.Context, url string, source entity.SourceType) (*entity.VideoContent, error) {
	fetcher, ok := d.fetchers[source]
	if !ok || fetcher == nil {
		metrics.ContentFetchesTotal.WithLabelValues(string(source), "unsupported").Inc()
		slog.Debug("No content fetcher for source", "url", url, "source", source)
		return &entity.VideoContent{}, nil
	}

	startTime := time.Now()
	content, err := fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.ContentFetchesTotal.WithLabelValues(string(source), "error").Inc()
		slog.Warn("Content extraction failed", "url", url, "source", source, "error", err)
		return &entity.VideoContent{}, nil
	}
	if content == nil || content.Empty() {
		metrics.ContentFetchesTotal.WithLabelValues(string(source), "empty").Inc()
		return &entity.VideoContent{}, nil
	}

	metrics.ContentFetchesTotal.WithLabelValues(string(source), "success").Inc()
	slog.Info("Extracted content",
		"url", url,
		"source", source,
		"captions", content.HasCaptions(),
		"chars", len(content.CombinedText),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return content, nil
}
