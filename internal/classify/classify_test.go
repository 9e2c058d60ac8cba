package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatmap/internal/cache"
	"threatmap/internal/geocode"
	"threatmap/internal/llm"
	"threatmap/internal/metrics"
	"threatmap/internal/model"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Stream(ctx context.Context, messages []llm.Message) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

// recordingLookup resolves only the names in known and records every query.
type recordingLookup struct {
	known   map[string]*model.GeoLocation
	queries []string
}

func (r *recordingLookup) Lookup(ctx context.Context, name string) (*model.GeoLocation, error) {
	r.queries = append(r.queries, name)
	return r.known[name], nil
}

func newTestGeocoder(t *testing.T, lookup geocode.Lookup) *geocode.Geocoder {
	t.Helper()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	return geocode.New(lookup, c, metrics.New())
}

func TestParseAIResponseValidated(t *testing.T) {
	v := ParseAIResponse(`Sure! {"category":"conflict","threatLevel":"high","primaryLocation":"Mariupol","city":"Mariupol","region":"Donetsk","country":"Ukraine"}`)
	require.NotNil(t, v)
	assert.Equal(t, VerdictValidated, v.State)
	assert.Equal(t, model.CategoryConflict, v.Category)
	assert.Equal(t, model.ThreatHigh, v.ThreatLevel)
	assert.Equal(t, "Ukraine", v.Country)
}

func TestParseAIResponsePartial(t *testing.T) {
	v := ParseAIResponse(`{"category":"warzone","threatLevel":"high","country":"Ukraine"}`)
	require.NotNil(t, v)
	assert.Equal(t, VerdictPartial, v.State)
	assert.Empty(t, v.Category)
	assert.Equal(t, model.ThreatHigh, v.ThreatLevel)
	assert.Equal(t, "warzone", v.Raw["category"])
}

func TestParseAIResponseGarbage(t *testing.T) {
	assert.Nil(t, ParseAIResponse("no json here"))
	assert.Nil(t, ParseAIResponse(`{"category": [1,2`))
}

func TestClassifyCascadeOrder(t *testing.T) {
	lookup := &recordingLookup{known: map[string]*model.GeoLocation{
		"Ukraine": {Latitude: 49, Longitude: 31, Country: "Ukraine"},
	}}
	provider := &stubProvider{
		response: `{"category":"conflict","threatLevel":"high","primaryLocation":"Mariupol","city":"Mariupol","region":"Donetsk","country":"Ukraine"}`,
	}

	c := New(provider, newTestGeocoder(t, lookup), metrics.New())
	outcome := c.Classify(context.Background(), "Shelling in Mariupol", "Artillery fire struck the city overnight.")

	// Most specific variant tried first, bare country last.
	assert.Equal(t, []string{
		"Mariupol, Donetsk, Ukraine",
		"Mariupol",
		"Donetsk, Ukraine",
		"Ukraine",
	}, lookup.queries)

	require.NotNil(t, outcome.Location)
	assert.Equal(t, "Ukraine", outcome.Location.Country)
	assert.Equal(t, model.CategoryConflict, outcome.Category)
	assert.True(t, outcome.UsedAI)
}

func TestClassifyKeywordFallbackOnTransportError(t *testing.T) {
	lookup := &recordingLookup{known: map[string]*model.GeoLocation{
		"Mariupol": {Latitude: 47.1, Longitude: 37.5, PlaceName: "Mariupol"},
	}}
	provider := &stubProvider{err: errors.New("timeout")}

	c := New(provider, newTestGeocoder(t, lookup), metrics.New())
	outcome := c.Classify(context.Background(), "Airstrike near Mariupol", "The airstrike hit the port area, several killed.")

	assert.False(t, outcome.UsedAI)
	assert.Equal(t, model.CategoryConflict, outcome.Category)
	// "killed" escalates high to critical.
	assert.Equal(t, model.ThreatCritical, outcome.ThreatLevel)
	require.NotNil(t, outcome.Location)
	assert.Equal(t, "Mariupol", outcome.Location.PlaceName)
}

func TestClassifyPartialVerdictPatchedFromKeywords(t *testing.T) {
	lookup := &recordingLookup{known: map[string]*model.GeoLocation{
		"Kenya": {Latitude: -0.02, Longitude: 37.9, Country: "Kenya"},
	}}
	provider := &stubProvider{
		response: `{"category":"floods","threatLevel":"high","country":"Kenya"}`,
	}

	c := New(provider, newTestGeocoder(t, lookup), metrics.New())
	outcome := c.Classify(context.Background(), "Flood displaces thousands", "A flood hit the region after heavy rain.")

	// Invalid AI category patched from the keyword verdict; valid AI
	// threat level kept.
	assert.Equal(t, model.CategoryDisaster, outcome.Category)
	assert.Equal(t, model.ThreatHigh, outcome.ThreatLevel)
	require.NotNil(t, outcome.Location)
	assert.Equal(t, "Kenya", outcome.Location.Country)
}

func TestClassifyNoLocationResolved(t *testing.T) {
	lookup := &recordingLookup{known: map[string]*model.GeoLocation{}}
	c := New(nil, newTestGeocoder(t, lookup), metrics.New())

	outcome := c.Classify(context.Background(), "Markets rally", "Stocks rose on upbeat earnings, analysts said.")
	assert.Nil(t, outcome.Location)
}
