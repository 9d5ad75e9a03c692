package oembed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/user/recipe-service/internal/entity"
)

const (
	defaultYouTubeEndpoint   = "https://www.youtube.com/oembed"
	defaultTikTokEndpoint    = "https://www.tiktok.com/oembed"
	defaultInstagramEndpoint = "https://graph.facebook.com/v17.0/instagram_oembed"

	maxBodyBytes = 256 * 1024
)

// ErrUnsupportedSource is returned for sources without an oEmbed provider.
var ErrUnsupportedSource = errors.New("no oEmbed provider for source")

// ErrMissingToken is returned for Instagram when no access token is configured.
var ErrMissingToken = errors.New("instagram oEmbed token not configured")

// Endpoints are the provider URLs. Tests point them at an httptest server.
type Endpoints struct {
	YouTube   string
	TikTok    string
	Instagram string
}

// DefaultEndpoints returns the public provider endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		YouTube:   defaultYouTubeEndpoint,
		TikTok:    defaultTikTokEndpoint,
		Instagram: defaultInstagramEndpoint,
	}
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	ProviderName string `json:"provider_name"`
}

// Client implements repository.MetadataFetcher over the platform oEmbed APIs.
type Client struct {
	http           *http.Client
	endpoints      Endpoints
	instagramToken string
	maxTries       uint
	initialBackoff time.Duration
}

// NewClient creates an oEmbed client. timeout bounds each HTTP attempt.
func NewClient(endpoints Endpoints, instagramToken string, timeout time.Duration) *Client {
	return &Client{
		http:           &http.Client{Timeout: timeout},
		endpoints:      endpoints,
		instagramToken: instagramToken,
		maxTries:       3,
		initialBackoff: 500 * time.Millisecond,
	}
}

// FetchMetadata looks up the title and thumbnail of a video URL.
func (c *Client) FetchMetadata(ctx context.Context, videoURL string, source entity.SourceType) (*entity.PlatformMetadata, error) {
	endpoint, err := c.endpointFor(videoURL, source)
	if err != nil {
		return nil, err
	}

	body, err := c.fetchWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s oEmbed: %w", source, err)
	}

	var resp oEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s oEmbed: decode: %w", source, err)
	}

	provider := resp.ProviderName
	if provider == "" {
		provider = string(source)
	}
	slog.Debug("oEmbed metadata retrieved", "url", videoURL, "provider", provider, "title", resp.Title)
	return &entity.PlatformMetadata{
		Title:        resp.Title,
		AuthorName:   resp.AuthorName,
		ThumbnailURL: resp.ThumbnailURL,
		Provider:     provider,
	}, nil
}

func (c *Client) endpointFor(videoURL string, source entity.SourceType) (string, error) {
	q := url.Values{}
	q.Set("url", videoURL)

	var base string
	switch source {
	case entity.SourceYouTube:
		base = c.endpoints.YouTube
		q.Set("format", "json")
	case entity.SourceTikTok:
		base = c.endpoints.TikTok
	case entity.SourceInstagram:
		if c.instagramToken == "" {
			return "", ErrMissingToken
		}
		base = c.endpoints.Instagram
		q.Set("access_token", c.instagramToken)
	default:
		return "", ErrUnsupportedSource
	}
	return base + "?" + q.Encode(), nil
}

// fetchWithRetry performs a GET with exponential backoff. 429 and 5xx are
// retried; any other non-200 status is permanent.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries), backoff.WithMaxElapsedTime(20*time.Second))
}
