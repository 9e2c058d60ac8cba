package jitter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatmap/internal/model"
)

func event(id string, lat, lon float64) model.ThreatEvent {
	return model.ThreatEvent{
		ID:       id,
		Location: &model.GeoLocation{Latitude: lat, Longitude: lon, PlaceName: "X"},
	}
}

func TestSingletonsUnchanged(t *testing.T) {
	events := []model.ThreatEvent{
		event("a", 50.45, 30.52),
		event("b", 48.85, 2.35),
	}

	out := DisplayLocations(events)
	require.Len(t, out, 2)
	assert.Equal(t, *events[0].Location, out["a"])
	assert.Equal(t, *events[1].Location, out["b"])
}

func TestGroupSpreadOnCircle(t *testing.T) {
	lat, lon := 50.45, 30.52
	events := []model.ThreatEvent{
		event("d", lat, lon),
		event("b", lat, lon),
		event("a", lat, lon),
		event("c", lat, lon),
	}

	out := DisplayLocations(events)
	require.Len(t, out, 4)

	for id, loc := range out {
		dist := math.Hypot(loc.Latitude-lat, loc.Longitude-lon)
		assert.InDelta(t, Radius, dist, 1e-9, id)
	}

	// Group order is by event ID, so "a" gets angle 0: lat offset
	// sin(0)=0, lon offset cos(0)=Radius.
	assert.InDelta(t, lat, out["a"].Latitude, 1e-9)
	assert.InDelta(t, lon+Radius, out["a"].Longitude, 1e-9)

	// "b" is the second of four, a quarter turn further.
	assert.InDelta(t, lat+Radius, out["b"].Latitude, 1e-9)
	assert.InDelta(t, lon, out["b"].Longitude, 1e-9)
}

func TestDeterministicAcrossInputOrder(t *testing.T) {
	lat, lon := 10.0, 20.0
	forward := []model.ThreatEvent{event("a", lat, lon), event("b", lat, lon), event("c", lat, lon)}
	reversed := []model.ThreatEvent{event("c", lat, lon), event("b", lat, lon), event("a", lat, lon)}

	assert.Equal(t, DisplayLocations(forward), DisplayLocations(reversed))
}

func TestNearbyCellsStaySeparate(t *testing.T) {
	// 50.451 and 50.459 round to different 2-decimal cells.
	events := []model.ThreatEvent{
		event("a", 50.451, 30.52),
		event("b", 50.459, 30.52),
	}

	out := DisplayLocations(events)
	assert.Equal(t, 50.451, out["a"].Latitude)
	assert.Equal(t, 50.459, out["b"].Latitude)
}

func TestNilLocationsSkipped(t *testing.T) {
	events := []model.ThreatEvent{
		{ID: "a"},
		event("b", 1, 2),
	}
	out := DisplayLocations(events)
	assert.Len(t, out, 1)
	assert.NotContains(t, out, "a")
}
