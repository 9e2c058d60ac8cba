package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"threatmap/internal/model"
)

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://Example.com/News/Story?utm_source=rss&id=7": "https://example.com/news/story",
		"https://example.com/news/story/":                    "https://example.com/news/story",
		"https://example.com/news/story#comments":            "https://example.com/news/story",
		"https://example.com/":                               "https://example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeURL(in), in)
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://www.Example.com/a/b"))
	assert.Equal(t, "not a url", Domain("not a url"))
}

func TestFilterDedupesByNormalizedURL(t *testing.T) {
	n := New(DefaultFilters())

	results := []model.RawSearchResult{
		{Title: "Strike hits port", URL: "https://example.com/story?utm_source=a"},
		{Title: "Strike hits port (copy)", URL: "https://example.com/story/"},
		{Title: "Different story", URL: "https://example.com/other"},
	}

	out := n.Filter(results)
	assert.Len(t, out, 2)
	// First occurrence wins.
	assert.Equal(t, "Strike hits port", out[0].Title)
	assert.Equal(t, "Different story", out[1].Title)
}

func TestFilterBlockedDomains(t *testing.T) {
	n := New(Filters{BlockedDomains: []string{"blocked.org"}})

	out := n.Filter([]model.RawSearchResult{
		{Title: "a", URL: "https://blocked.org/x"},
		{Title: "b", URL: "https://www.blocked.org/y"},
		{Title: "c", URL: "https://sub.blocked.org/z"},
		{Title: "d", URL: "https://notblocked.org/w"},
	})

	assert.Len(t, out, 1)
	assert.Equal(t, "d", out[0].Title)
}

func TestFilterGenericTitles(t *testing.T) {
	n := New(DefaultFilters())

	out := n.Filter([]model.RawSearchResult{
		{Title: "Border crisis | Topic", URL: "https://example.com/1"},
		{Title: "Google News", URL: "https://example.com/2"},
		{Title: "Real headline about a flood", URL: "https://example.com/3"},
	})

	assert.Len(t, out, 1)
	assert.Equal(t, "Real headline about a flood", out[0].Title)
}

func TestFilterDropsEmptyFields(t *testing.T) {
	n := New(DefaultFilters())

	out := n.Filter([]model.RawSearchResult{
		{Title: "", URL: "https://example.com/1"},
		{Title: "   ", URL: "https://example.com/2"},
		{Title: "ok", URL: ""},
	})
	assert.Empty(t, out)
}

func TestFilterIdempotent(t *testing.T) {
	n := New(DefaultFilters())

	in := []model.RawSearchResult{
		{Title: "one", URL: "https://example.com/1?q=x"},
		{Title: "two", URL: "https://example.com/2"},
		{Title: "one again", URL: "https://example.com/1"},
	}

	once := n.Filter(in)
	twice := n.Filter(once)
	assert.Equal(t, once, twice)
}

func TestDedupeEventsByTitle(t *testing.T) {
	events := []model.ThreatEvent{
		{ID: "1", Title: "Explosion reported"},
		{ID: "2", Title: "Explosion reported"},
		{ID: "3", Title: "Explosion Reported"}, // different case survives
	}

	out := DedupeEventsByTitle(events)
	assert.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}
