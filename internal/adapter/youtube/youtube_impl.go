package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/user/recipe-service/internal/entity"
)

// videoClient is the part of youtube.Client the fetcher uses.
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
}

// Fetcher extracts title, description and captions of a YouTube video.
type Fetcher struct {
	videos  videoClient
	http    *http.Client
	dataAPI *DataAPI
	langs   []string
}

// NewFetcher creates a Fetcher. dataAPI may be nil.
func NewFetcher(httpClient *http.Client, dataAPI *DataAPI) *Fetcher {
	return &Fetcher{
		videos:  &youtube.Client{HTTPClient: httpClient},
		http:    httpClient,
		dataAPI: dataAPI,
		langs:   []string{"en", "en-US"},
	}
}

// Fetch returns the content of a video. Captions are best effort: a video
// without usable tracks still yields its title and description.
func (f *Fetcher) Fetch(ctx context.Context, videoURL string) (*entity.VideoContent, error) {
	content, err := f.fetchVideoInfo(ctx, videoURL)
	if err != nil || content.Title == "" {
		if f.dataAPI == nil {
			if err == nil {
				err = errors.New("video info returned no title")
			}
			return nil, err
		}
		slog.Warn("YouTube video info unavailable, trying Data API", "url", videoURL, "error", err)
		return f.dataAPI.Fetch(ctx, videoURL)
	}
	return content, nil
}

func (f *Fetcher) fetchVideoInfo(ctx context.Context, videoURL string) (*entity.VideoContent, error) {
	video, err := f.videos.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("get video info: %w", err)
	}

	content := &entity.VideoContent{
		Title:           strings.TrimSpace(video.Title),
		Description:     strings.TrimSpace(video.Description),
		DurationSeconds: int(video.Duration.Seconds()),
	}
	if len(video.Thumbnails) > 0 {
		content.ThumbnailURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	if track, ok := pickBestTrack(video.CaptionTracks, f.langs); ok {
		captions, err := fetchTimedText(ctx, f.http, track.BaseURL)
		if err != nil {
			slog.Warn("Caption download failed, continuing without captions", "url", videoURL, "lang", track.LanguageCode, "error", err)
		} else {
			content.Captions = captions
		}
	}

	content.CombinedText = combine(content.Title, content.Description, content.Captions)
	slog.Debug("YouTube content extracted",
		"url", videoURL,
		"title", content.Title,
		"description_chars", len(content.Description),
		"caption_chars", len(content.Captions),
	)
	return content, nil
}

// pickBestTrack prefers a manual track in a preferred language, then an
// auto-generated one, then any English track, then the first track.
func pickBestTrack(tracks []youtube.CaptionTrack, langs []string) (youtube.CaptionTrack, bool) {
	if len(tracks) == 0 {
		return youtube.CaptionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return tracks[0], true
}

func combine(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
