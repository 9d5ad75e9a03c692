package entity

import (
	"net/url"
	"strings"
	"time"
)

type SourceType string

const (
	SourceYouTube   SourceType = "youtube"
	SourceTikTok    SourceType = "tiktok"
	SourceInstagram SourceType = "instagram"
	SourceWeb       SourceType = "web"
)

// DetectSourceType maps a URL host onto a platform. Anything unrecognised is web.
func DetectSourceType(rawURL string) SourceType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return SourceWeb
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return SourceYouTube
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return SourceTikTok
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return SourceInstagram
	default:
		return SourceWeb
	}
}

type ExtractionMethod string

const (
	MethodWhisper ExtractionMethod = "whisper"
	MethodBasic   ExtractionMethod = "basic"
	MethodOEmbed  ExtractionMethod = "oembed"
)

type ExtractionQuality string

const (
	QualityHigh   ExtractionQuality = "high"
	QualityMedium ExtractionQuality = "medium"
	QualityLow    ExtractionQuality = "low"
)

// RecipeRecord mirrors the `recipes` PostgreSQL table.
type RecipeRecord struct {
	ID                 string
	SourceURL          string
	SourceType         SourceType
	RawText            string
	Extracted          RecipeJSON // Stored as JSONB
	ThumbnailURL       string
	ExtractionMethod   ExtractionMethod
	ExtractionQuality  ExtractionQuality
	HasAudioTranscript bool
	CreatedAt          time.Time
}

// RecipeFilter narrows a recipe listing.
type RecipeFilter struct {
	Query  string
	Limit  int
	Offset int
}
