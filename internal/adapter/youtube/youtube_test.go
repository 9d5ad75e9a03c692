package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVideoClient struct {
	video *youtube.Video
	err   error
}

func (f *fakeVideoClient) GetVideoContext(context.Context, string) (*youtube.Video, error) {
	return f.video, f.err
}

const transcriptXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.1" dur="2">first boil the &amp;#39;spaghetti&amp;#39;</text>
<text start="2.1" dur="2">
  then   add garlic</text>
<text start="4" dur="1"></text>
</transcript>`

func TestParseTimedText(t *testing.T) {
	text, err := parseTimedText([]byte(transcriptXML))
	require.NoError(t, err)
	assert.Equal(t, "first boil the 'spaghetti' then add garlic", text)

	format3 := `<timedtext format="3"><body><p t="0" d="1">salt &amp;amp; pepper</p><p t="1" d="1"><s>fry</s><s> it</s></p></body></timedtext>`
	text, err = parseTimedText([]byte(format3))
	require.NoError(t, err)
	assert.Equal(t, "salt & pepper fry it", text)

	fonts := `<transcript><text>Add the &lt;font color=&quot;#E5E5E5&quot;&gt;garlic&lt;/font&gt; now</text><text>Then <font color="#fff">toss</font> it</text></transcript>`
	text, err = parseTimedText([]byte(fonts))
	require.NoError(t, err)
	assert.Equal(t, "Add the garlic now Then toss it", text)

	_, err = parseTimedText([]byte("not xml <"))
	assert.Error(t, err)
}

func TestPickBestTrack(t *testing.T) {
	tracks := []youtube.CaptionTrack{
		{LanguageCode: "es", BaseURL: "es"},
		{LanguageCode: "en", Kind: "asr", BaseURL: "en-asr"},
		{LanguageCode: "en", BaseURL: "en-manual"},
	}
	track, ok := pickBestTrack(tracks, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "en-manual", track.BaseURL)

	track, ok = pickBestTrack(tracks[:2], []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "en-asr", track.BaseURL)

	track, ok = pickBestTrack([]youtube.CaptionTrack{{LanguageCode: "de", BaseURL: "de"}, {LanguageCode: "en-GB", BaseURL: "gb"}}, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "gb", track.BaseURL)

	track, ok = pickBestTrack([]youtube.CaptionTrack{{LanguageCode: "de", BaseURL: "de"}}, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "de", track.BaseURL)

	_, ok = pickBestTrack(nil, []string{"en"})
	assert.False(t, ok)
}

func TestFetcher_WithCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(transcriptXML))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	f.videos = &fakeVideoClient{video: &youtube.Video{
		Title:         "Garlic Pasta",
		Description:   "Quick weeknight pasta.",
		Duration:      95 * time.Second,
		Thumbnails:    youtube.Thumbnails{{URL: "small.jpg"}, {URL: "large.jpg"}},
		CaptionTracks: []youtube.CaptionTrack{{LanguageCode: "en", BaseURL: srv.URL + "/timedtext"}},
	}}

	content, err := f.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Garlic Pasta", content.Title)
	assert.Equal(t, 95, content.DurationSeconds)
	assert.Equal(t, "large.jpg", content.ThumbnailURL)
	assert.True(t, content.HasCaptions())
	assert.Equal(t, "Garlic Pasta\n\nQuick weeknight pasta.\n\nfirst boil the 'spaghetti' then add garlic", content.CombinedText)
}

func TestFetcher_CaptionFailureKeepsDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	f.videos = &fakeVideoClient{video: &youtube.Video{
		Title:         "Garlic Pasta",
		Description:   "Quick weeknight pasta.",
		CaptionTracks: []youtube.CaptionTrack{{LanguageCode: "en", BaseURL: srv.URL}},
	}}

	content, err := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.False(t, content.HasCaptions())
	assert.Equal(t, "Garlic Pasta\n\nQuick weeknight pasta.", content.CombinedText)
}

func TestFetcher_FallsBackToDataAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":"Adobo","description":"Soy, vinegar, garlic.","thumbnails":{"high":{"url":"high.jpg"}}}}]}`))
	}))
	defer srv.Close()

	api := NewDataAPI(srv.Client(), "key-1")
	api.baseURL = srv.URL
	f := NewFetcher(srv.Client(), api)
	f.videos = &fakeVideoClient{err: errors.New("login required")}

	content, err := f.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Adobo", content.Title)
	assert.Equal(t, "high.jpg", content.ThumbnailURL)
	assert.Equal(t, "Adobo\n\nSoy, vinegar, garlic.", content.CombinedText)
}

func TestFetcher_NoFallbackWithoutKey(t *testing.T) {
	assert.Nil(t, NewDataAPI(http.DefaultClient, ""))

	f := NewFetcher(http.DefaultClient, nil)
	f.videos = &fakeVideoClient{err: errors.New("login required")}

	_, err := f.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.Error(t, err)
}

func TestDataAPI_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	api := NewDataAPI(srv.Client(), "key")
	api.baseURL = srv.URL

	_, err := api.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}
