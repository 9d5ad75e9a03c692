package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipe-service/internal/entity"
)

func newTestClient(srv *httptest.Server, token string) *Client {
	c := NewClient(Endpoints{
		YouTube:   srv.URL + "/youtube",
		TikTok:    srv.URL + "/tiktok",
		Instagram: srv.URL + "/instagram",
	}, token, 2*time.Second)
	c.initialBackoff = time.Millisecond
	return c
}

func TestFetchMetadata_YouTube(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "https://www.youtube.com/watch?v=abc", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"title":"5-Minute Garlic Pasta","author_name":"Chef","thumbnail_url":"https://i.ytimg.com/vi/abc/hq.jpg","provider_name":"YouTube"}`))
	}))
	defer srv.Close()

	md, err := newTestClient(srv, "").FetchMetadata(context.Background(), "https://www.youtube.com/watch?v=abc", entity.SourceYouTube)
	require.NoError(t, err)
	assert.Equal(t, "5-Minute Garlic Pasta", md.Title)
	assert.Equal(t, "Chef", md.AuthorName)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hq.jpg", md.ThumbnailURL)
	assert.Equal(t, "YouTube", md.Provider)
}

func TestFetchMetadata_InstagramToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"title":"Reel"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").FetchMetadata(context.Background(), "https://www.instagram.com/reel/x/", entity.SourceInstagram)
	assert.ErrorIs(t, err, ErrMissingToken)

	md, err := newTestClient(srv, "secret").FetchMetadata(context.Background(), "https://www.instagram.com/reel/x/", entity.SourceInstagram)
	require.NoError(t, err)
	assert.Equal(t, "Reel", md.Title)
	assert.Equal(t, "instagram", md.Provider)
}

func TestFetchMetadata_WebUnsupported(t *testing.T) {
	c := NewClient(DefaultEndpoints(), "", time.Second)
	_, err := c.FetchMetadata(context.Background(), "https://example.com/recipe", entity.SourceWeb)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestFetchMetadata_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"title":"Dumplings"}`))
	}))
	defer srv.Close()

	md, err := newTestClient(srv, "").FetchMetadata(context.Background(), "https://www.tiktok.com/@a/video/1", entity.SourceTikTok)
	require.NoError(t, err)
	assert.Equal(t, "Dumplings", md.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchMetadata_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "").FetchMetadata(context.Background(), "https://www.tiktok.com/@a/video/1", entity.SourceTikTok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}
