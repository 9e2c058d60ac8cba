package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cat, ok := ParseCategory("conflict")
	assert.True(t, ok)
	assert.Equal(t, CategoryConflict, cat)

	cat, ok = ParseCategory("  Terrorism ")
	assert.True(t, ok)
	assert.Equal(t, CategoryTerrorism, cat)

	_, ok = ParseCategory("weather")
	assert.False(t, ok)

	_, ok = ParseCategory("")
	assert.False(t, ok)
}

func TestParseThreatLevel(t *testing.T) {
	level, ok := ParseThreatLevel("CRITICAL")
	assert.True(t, ok)
	assert.Equal(t, ThreatCritical, level)

	_, ok = ParseThreatLevel("severe")
	assert.False(t, ok)
}

func TestThreatLevelPriority(t *testing.T) {
	// Severity order: critical sorts before high, high before medium, and
	// so on down to info.
	assert.Less(t, ThreatCritical.Priority(), ThreatHigh.Priority())
	assert.Less(t, ThreatHigh.Priority(), ThreatMedium.Priority())
	assert.Less(t, ThreatMedium.Priority(), ThreatLow.Priority())
	assert.Less(t, ThreatLow.Priority(), ThreatInfo.Priority())
}

func TestValidPlaceName(t *testing.T) {
	valid := []string{"Kyiv", "Tel Aviv", "São Paulo", "US"}
	for _, name := range valid {
		assert.True(t, ValidPlaceName(name), name)
	}

	invalid := []string{
		"", " ", "a",
		"Unknown", "unknown", "UNKNOWN",
		"Global", "worldwide", "N/A", "n/a", "Routes",
	}
	for _, name := range invalid {
		assert.False(t, ValidPlaceName(name), name)
	}
}

func TestGeoLocationValid(t *testing.T) {
	var nilLoc *GeoLocation
	assert.False(t, nilLoc.Valid())

	assert.False(t, (&GeoLocation{Latitude: 1, Longitude: 2}).Valid())
	assert.False(t, (&GeoLocation{PlaceName: "unknown"}).Valid())

	assert.True(t, (&GeoLocation{PlaceName: "Mariupol"}).Valid())
	assert.True(t, (&GeoLocation{Country: "Ukraine"}).Valid())
}
