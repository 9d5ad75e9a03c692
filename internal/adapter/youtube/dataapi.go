package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/kkdai/youtube/v2"

	"github.com/user/recipe-service/internal/entity"
)

const defaultDataAPIBase = "https://www.googleapis.com/youtube/v3"

// ErrVideoNotFound is returned when the Data API has no item for the id.
var ErrVideoNotFound = errors.New("video not found or not accessible")

// DataAPI reads video snippets from the YouTube Data API v3.
type DataAPI struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewDataAPI creates a Data API client. It returns nil when apiKey is empty.
func NewDataAPI(httpClient *http.Client, apiKey string) *DataAPI {
	if apiKey == "" {
		return nil
	}
	return &DataAPI{http: httpClient, baseURL: defaultDataAPIBase, apiKey: apiKey}
}

type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Fetch returns the title, description and thumbnail of a video.
func (d *DataAPI) Fetch(ctx context.Context, videoURL string) (*entity.VideoContent, error) {
	id, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, fmt.Errorf("data api: %w", err)
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("id", id)
	q.Set("key", d.apiKey)
	endpoint := d.baseURL + "/videos?" + q.Encode()

	operation := func() (*videosResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := d.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		var out videosResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, backoff.Permanent(err)
		}
		return &out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	out, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(2))
	if err != nil {
		return nil, fmt.Errorf("data api: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	snippet := out.Items[0].Snippet
	content := &entity.VideoContent{
		Title:       snippet.Title,
		Description: snippet.Description,
	}
	for _, size := range []string{"maxres", "high", "medium", "default"} {
		if thumb, ok := snippet.Thumbnails[size]; ok && thumb.URL != "" {
			content.ThumbnailURL = thumb.URL
			break
		}
	}
	content.CombinedText = combine(content.Title, content.Description)
	return content, nil
}
