// Package model holds the core data types shared across the pipeline.
package model

import (
	"strings"
	"time"
)

// Category is the fixed classification taxonomy for threat events.
type Category string

const (
	CategoryConflict       Category = "conflict"
	CategoryProtest        Category = "protest"
	CategoryDisaster       Category = "disaster"
	CategoryDiplomatic     Category = "diplomatic"
	CategoryEconomic       Category = "economic"
	CategoryTerrorism      Category = "terrorism"
	CategoryCyber          Category = "cyber"
	CategoryHealth         Category = "health"
	CategoryEnvironmental  Category = "environmental"
	CategoryMilitary       Category = "military"
	CategoryCrime          Category = "crime"
	CategoryPiracy         Category = "piracy"
	CategoryInfrastructure Category = "infrastructure"
	CategoryCommodities    Category = "commodities"
)

// Categories lists every valid category, in taxonomy order.
var Categories = []Category{
	CategoryConflict, CategoryProtest, CategoryDisaster, CategoryDiplomatic,
	CategoryEconomic, CategoryTerrorism, CategoryCyber, CategoryHealth,
	CategoryEnvironmental, CategoryMilitary, CategoryCrime, CategoryPiracy,
	CategoryInfrastructure, CategoryCommodities,
}

// ParseCategory maps a free-form string to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return known, true
		}
	}
	return "", false
}

// ThreatLevel is the five-step severity scale. Critical is the most severe
// and sorts first.
type ThreatLevel string

const (
	ThreatCritical ThreatLevel = "critical"
	ThreatHigh     ThreatLevel = "high"
	ThreatMedium   ThreatLevel = "medium"
	ThreatLow      ThreatLevel = "low"
	ThreatInfo     ThreatLevel = "info"
)

var threatPriority = map[ThreatLevel]int{
	ThreatCritical: 0,
	ThreatHigh:     1,
	ThreatMedium:   2,
	ThreatLow:      3,
	ThreatInfo:     4,
}

// Priority returns the sort rank of the threat level; lower sorts first.
// Unknown levels rank below info.
func (t ThreatLevel) Priority() int {
	if p, ok := threatPriority[t]; ok {
		return p
	}
	return len(threatPriority)
}

// ParseThreatLevel maps a free-form string to a ThreatLevel.
func ParseThreatLevel(s string) (ThreatLevel, bool) {
	t := ThreatLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := threatPriority[t]; ok {
		return t, true
	}
	return "", false
}

// RawSearchResult is one raw tuple returned by a search provider. Immutable;
// consumed once per pipeline run.
type RawSearchResult struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Content       string    `json:"content"`
	PublishedDate time.Time `json:"publishedDate,omitempty"`
	SourceLabel   string    `json:"sourceLabel,omitempty"`
	SourceCountry string    `json:"sourceCountry,omitempty"`
}

// bannedPlaceNames are placeholder strings that must never pass as a real
// place or country name.
var bannedPlaceNames = map[string]struct{}{
	"unknown":   {},
	"global":    {},
	"worldwide": {},
	"n/a":       {},
	"routes":    {},
}

// ValidPlaceName reports whether name is usable as a place or country name:
// at least 2 characters and not one of the banned generic names,
// case-insensitively.
func ValidPlaceName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return false
	}
	_, banned := bannedPlaceNames[strings.ToLower(name)]
	return !banned
}

// GeoLocation is a resolved coordinate pair with optional naming.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceName string  `json:"placeName,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// Valid reports whether the location carries at least one usable name.
func (g *GeoLocation) Valid() bool {
	if g == nil {
		return false
	}
	return ValidPlaceName(g.PlaceName) || ValidPlaceName(g.Country)
}

// ClassificationResult is the classifier's verdict for one article.
// Location is nil when no candidate string geocoded.
type ClassificationResult struct {
	Category    Category     `json:"category"`
	ThreatLevel ThreatLevel  `json:"threatLevel"`
	Location    *GeoLocation `json:"location"`
}

// ThreatEvent is the pipeline's terminal artifact. Never mutated after
// creation; identity is ID, dedup keys on normalized SourceURL and exact
// Title equality.
type ThreatEvent struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Category    Category     `json:"category"`
	ThreatLevel ThreatLevel  `json:"threatLevel"`
	Location    *GeoLocation `json:"location"`
	Timestamp   time.Time    `json:"timestamp"`
	Source      string       `json:"source"`
	SourceURL   string       `json:"sourceUrl"`
	Entities    []string     `json:"entities,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	RawContent  string       `json:"-"`
	// SeenHash is the dedup identity computed at intake, before translation
	// rewrites the title.
	SeenHash string `json:"-"`
}

// TimezoneBand is one follow-the-sun catalog entry: a UTC offset and the
// countries whose local noon falls near it. Read-only configuration.
type TimezoneBand struct {
	UTCOffset   float64  `json:"utcOffset" yaml:"utcOffset"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Countries   []string `json:"countries" yaml:"countries"`
}

// SourceError records one failed source for caller-level diagnostics.
type SourceError struct {
	Source string `json:"source"`
	Stage  string `json:"stage"`
	Err    string `json:"error"`
}

// RunReport is the outcome of one full pipeline run. A fully-failed run has
// an empty Events slice and a populated Errors slice.
type RunReport struct {
	Events    []ThreatEvent          `json:"events"`
	Display   map[string]GeoLocation `json:"display"`
	Band      string                 `json:"band"`
	Expanded  bool                   `json:"expanded"`
	StartedAt time.Time              `json:"startedAt"`
	Duration  time.Duration          `json:"-"`
	Errors    []SourceError          `json:"errors"`
}
