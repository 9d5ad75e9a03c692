package content

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type stubFetcher struct {
	content *entity.VideoContent
	err     error
	urls    []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*entity.VideoContent, error) {
	s.urls = append(s.urls, url)
	return s.content, s.err
}

func TestDispatcher_RoutesBySource(t *testing.T) {
	yt := &stubFetcher{content: &entity.VideoContent{Title: "Pasta", Captions: "boil", CombinedText: "Pasta\n\nboil"}}
	web := &stubFetcher{}
	d := NewDispatcher(map[entity.SourceType]SourceFetcher{
		entity.SourceYouTube: yt,
		entity.SourceWeb:     web,
	})
	before := testutil.ToFloat64(metrics.ContentFetchesTotal.WithLabelValues("youtube", "success"))

	content, err := d.FetchContent(context.Background(), "https://youtu.be/abc", entity.SourceYouTube)
	require.NoError(t, err)

	assert.True(t, content.HasCaptions())
	assert.Equal(t, []string{"https://youtu.be/abc"}, yt.urls)
	assert.Empty(t, web.urls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ContentFetchesTotal.WithLabelValues("youtube", "success")))
}

func TestDispatcher_FailuresYieldEmptyContent(t *testing.T) {
	tests := []struct {
		name    string
		fetcher SourceFetcher
		source  entity.SourceType
		result  string
	}{
		{"fetch error", &stubFetcher{err: errors.New("yt-dlp exited 1")}, entity.SourceTikTok, "error"},
		{"nil content", &stubFetcher{}, entity.SourceTikTok, "empty"},
		{"empty content", &stubFetcher{content: &entity.VideoContent{}}, entity.SourceTikTok, "empty"},
		{"no fetcher", nil, entity.SourceInstagram, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetchers := map[entity.SourceType]SourceFetcher{}
			if tt.fetcher != nil {
				fetchers[tt.source] = tt.fetcher
			}
			d := NewDispatcher(fetchers)
			counter := metrics.ContentFetchesTotal.WithLabelValues(string(tt.source), tt.result)
			before := testutil.ToFloat64(counter)

			content, err := d.FetchContent(context.Background(), "https://example.com/v", tt.source)
			require.NoError(t, err)

			require.NotNil(t, content)
			assert.True(t, content.Empty())
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}
