// Package geocode resolves fuzzy location strings to coordinates through a
// pluggable external lookup, with a validity filter in front and a
// memoizing cache behind it.
package geocode

import (
	"context"
	"strings"
	"unicode"

	"threatmap/internal/cache"
	"threatmap/internal/logger"
	"threatmap/internal/metrics"
	"threatmap/internal/model"
)

// Lookup is the external gazetteer boundary. Implementations return
// (nil, nil) for "no match" and an error only for transport problems.
type Lookup interface {
	Lookup(ctx context.Context, name string) (*model.GeoLocation, error)
}

// Geocoder wraps a Lookup with input validation and per-run memoization.
// The classifier's cascade probes it with up to four variants per event, so
// repeated strings must not hit the external service twice.
type Geocoder struct {
	lookup  Lookup
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// miss is the cached marker for lookups that resolved to nothing. Caching
// misses matters as much as hits: garbage strings repeat across articles.
type miss struct{}

func New(lookup Lookup, c *cache.Cache, m *metrics.Metrics) *Geocoder {
	return &Geocoder{lookup: lookup, cache: c, metrics: m}
}

// ValidName reports whether a location string is worth sending to the
// external lookup: length >= 2, not a banned generic name, and not a short
// all-lowercase noise token.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	if !model.ValidPlaceName(name) {
		return false
	}
	if isNoiseToken(name) {
		return false
	}
	return true
}

// isNoiseToken catches fragments like "th", "and", "nbsp" that location
// extractors sometimes produce: one short token, all lowercase letters.
func isNoiseToken(name string) bool {
	if strings.ContainsAny(name, " ,") {
		return false
	}
	runes := []rune(name)
	if len(runes) > 4 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// Resolve maps a location string to coordinates. Returns nil when the name
// fails validation, the lookup finds nothing, or the lookup errors; never
// propagates an error to the caller.
func (g *Geocoder) Resolve(ctx context.Context, name string) *model.GeoLocation {
	name = strings.TrimSpace(name)
	if !ValidName(name) {
		return nil
	}

	key := cache.Key("geocode", name)
	if cached, ok := g.cache.Get(key); ok {
		g.metrics.RecordGeocodeLookup(true)
		if loc, ok := cached.(*model.GeoLocation); ok {
			return loc
		}
		return nil // cached miss
	}
	g.metrics.RecordGeocodeLookup(false)

	loc, err := g.lookup.Lookup(ctx, name)
	if err != nil {
		logger.Warn("geocode lookup failed", "name", name, "error", err)
		// Transport failures are not cached; the next run may succeed.
		return nil
	}
	if loc == nil || !loc.Valid() {
		g.cache.Set(key, miss{})
		return nil
	}

	g.cache.Set(key, loc)
	return loc
}
