package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURL(t *testing.T) {
	a := HashURL("https://youtube.com/watch?v=abc")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashURL("https://youtube.com/watch?v=abc"))
	assert.NotEqual(t, a, HashURL("https://youtube.com/watch?v=abd"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://cooking.example.com/recipes/pasta")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "/img/pasta.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cooking.example.com/img/pasta.jpg", got)

	got, err = ToAbsoluteURL(base, "https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", got)
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://www.tiktok.com/@chef/video/1"))
	assert.True(t, IsHTTPURL("http://example.com"))
	assert.False(t, IsHTTPURL("ftp://example.com/file"))
	assert.False(t, IsHTTPURL("not a url"))
	assert.False(t, IsHTTPURL("/relative/path"))
}
