package repository

import (
	"context"

	"github.com/user/recipe-service/internal/entity"
)

// MetadataFetcher performs the platform oEmbed lookup for a video URL.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string, source entity.SourceType) (*entity.PlatformMetadata, error)
}

// ContentFetcher extracts title, description and captions for a URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string, source entity.SourceType) (*entity.VideoContent, error)
}

// PageRenderer loads a web page and returns its final HTML.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// AudioDownloader saves the best audio track of a video into dir and returns
// the file path.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, url, dir string) (string, error)
}
