package client_test

import (
	"testing"

	"github.com/nDmitry/stackfeed/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestKey(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"Lower-cases scheme and host", "HTTPS://Platformer.Substack.COM/feed", "https://platformer.substack.com/feed"},
		{"Drops fragment", "https://a.substack.com/p/post#comments", "https://a.substack.com/p/post"},
		{"Sorts query", "https://a.substack.com/api/v1/notes?limit=5&cursor=x", "https://a.substack.com/api/v1/notes?cursor=x&limit=5"},
		{"Adds root path", "https://a.substack.com", "https://a.substack.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := client.NewRequestKey(tt.url, client.AcceptFeed)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key.URL)
		})
	}
}

func TestNewRequestKey_SameIdentity(t *testing.T) {
	a, err := client.NewRequestKey("https://A.substack.com/api/v1/notes?limit=5&cursor=x#top", client.AcceptJSON)
	require.NoError(t, err)

	b, err := client.NewRequestKey("https://a.substack.com/api/v1/notes?cursor=x&limit=5", client.AcceptJSON)
	require.NoError(t, err)

	c, err := client.NewRequestKey("https://a.substack.com/api/v1/notes?cursor=x&limit=5", client.AcceptHTML)
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, b.String(), c.String())
}

func TestNewRequestKey_RejectsRelative(t *testing.T) {
	_, err := client.NewRequestKey("/feed", client.AcceptFeed)
	assert.Error(t, err)

	_, err = client.NewRequestKey("ftp://a.substack.com/feed", client.AcceptFeed)
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	e, err := client.NewEndpoints(client.DefaultURLTemplate)
	require.NoError(t, err)

	assert.Equal(t, "https://platformer.substack.com/feed", e.Feed("platformer"))
	assert.Equal(t, "https://platformer.substack.com/about", e.About("platformer"))
	assert.Equal(t, "https://platformer.substack.com/api/v1/notes?limit=10", e.Notes("platformer", 10))

	handle, ok := e.HandleOf("https://Platformer.substack.com/p/some-post")
	assert.True(t, ok)
	assert.Equal(t, "platformer", handle)

	_, ok = e.HandleOf("https://platformer.substack.com.evil.example/p/x")
	assert.False(t, ok)

	_, ok = e.HandleOf("https://example.com/p/x")
	assert.False(t, ok)
}

func TestEndpoints_PathTemplate(t *testing.T) {
	e, err := client.NewEndpoints("http://127.0.0.1:8080/{handle}/")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/demo/feed", e.Feed("demo"))

	handle, ok := e.HandleOf("http://127.0.0.1:8080/demo/p/first")
	assert.True(t, ok)
	assert.Equal(t, "demo", handle)
}

func TestEndpoints_InvalidTemplate(t *testing.T) {
	_, err := client.NewEndpoints("https://substack.com")
	assert.Error(t, err)

	_, err = client.NewEndpoints("{handle}.substack.com")
	assert.Error(t, err)
}

func TestRequestKey_NoRedirectHasOwnIdentity(t *testing.T) {
	key, err := client.NewRequestKey("https://demo.substack.com/api/v1/notes", client.AcceptJSON)
	require.NoError(t, err)

	noFollow := key
	noFollow.NoRedirect = true

	assert.NotEqual(t, key.String(), noFollow.String())
}
