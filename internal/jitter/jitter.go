// Package jitter spreads events that geocoded to identical coordinates
// into a small circle so overlapping map markers stay distinguishable.
package jitter

import (
	"fmt"
	"math"
	"sort"

	"threatmap/internal/model"
)

// Radius is the jitter circle radius in degrees, roughly 1.5 km.
const Radius = 0.015

// gridPrecision rounds coordinates to 2 decimal places, a ~1.1 km grid
// cell at the equator, to decide which events share a marker position.
func gridKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// DisplayLocations computes a display position per event ID. Singleton
// groups keep their true location; groups of n are placed evenly around a
// circle of radius Radius centered on the shared location. Groups are
// sorted by event ID before angles are assigned, so the output is
// deterministic regardless of upstream fetch order.
func DisplayLocations(events []model.ThreatEvent) map[string]model.GeoLocation {
	groups := make(map[string][]model.ThreatEvent)
	for _, e := range events {
		if e.Location == nil {
			continue
		}
		key := gridKey(e.Location.Latitude, e.Location.Longitude)
		groups[key] = append(groups[key], e)
	}

	out := make(map[string]model.GeoLocation, len(events))
	for _, group := range groups {
		if len(group) == 1 {
			e := group[0]
			out[e.ID] = *e.Location
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		n := float64(len(group))
		for i, e := range group {
			angle := 2 * math.Pi * float64(i) / n
			out[e.ID] = model.GeoLocation{
				Latitude:  e.Location.Latitude + Radius*math.Sin(angle),
				Longitude: e.Location.Longitude + Radius*math.Cos(angle),
				PlaceName: e.Location.PlaceName,
				Country:   e.Location.Country,
			}
		}
	}

	return out
}
