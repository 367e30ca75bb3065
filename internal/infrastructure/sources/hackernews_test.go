package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
)

func TestHackerNewsFetchRecent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "story", r.URL.Query().Get("tags"))
		assert.Equal(t, "points>=20", r.URL.Query().Get("numericFilters"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": [
				{"objectID": "100", "title": "An LLM story", "url": "https://example.org", "points": 120, "created_at": "2026-02-28T10:00:00Z"},
				{"objectID": "101", "title": "Ask HN: thoughts?", "story_text": "body", "points": 35, "created_at": "2026-02-28T09:00:00Z"},
				{"objectID": "100", "title": "Duplicate hit", "points": 120}
			]
		}`))
	}))
	defer server.Close()

	adapter, err := NewHackerNews(config.SourceConfig{
		Name:          "hn-test",
		Keywords:      []string{"LLM"},
		MinEngagement: 20,
		Options:       map[string]string{"endpoint": server.URL},
	}, server.Client(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLink, adapter.Type())

	records, err := adapter.FetchRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2, "hits deduplicated by story id")

	assert.Equal(t, "100", records[0]["objectID"])
	assert.Equal(t, 120, records[0]["points"])
	assert.Equal(t, "https://example.org", records[0]["url"])

	// Text posts fall back to the HN comment page.
	assert.Equal(t, "https://news.ycombinator.com/item?id=101", records[1]["url"])
	assert.Equal(t, "body", records[1]["story_text"])
}

func TestRedditFetchRecent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/MachineLearning/hot.json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"children": [
					{"data": {"id": "aaa", "title": "Post A", "selftext": "text", "permalink": "/r/MachineLearning/comments/aaa/", "ups": 57, "created_utc": 1772272800}},
					{"data": {"id": "", "title": "broken"}}
				]
			}
		}`))
	}))
	defer server.Close()

	adapter, err := NewReddit(config.SourceConfig{
		Name:       "reddit-test",
		Categories: []config.CategoryConfig{{Name: "MachineLearning"}},
		Options:    map[string]string{"baseUrl": server.URL},
	}, server.Client(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceDiscussion, adapter.Type())

	records, err := adapter.FetchRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1, "posts without an id are skipped")

	assert.Equal(t, "aaa", records[0]["id"])
	assert.Equal(t, 57, records[0]["ups"])
	assert.Equal(t, "/r/MachineLearning/comments/aaa/", records[0]["permalink"])
}
