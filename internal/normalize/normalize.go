// Package normalize filters and deduplicates raw search results before the
// expensive classification stages run.
package normalize

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"threatmap/internal/logger"
	"threatmap/internal/model"
)

// Filters is the YAML config structure for pre-filtering:
//
//	blockedDomains:
//	  - example.com
//	genericTitles:
//	  - '\| Topic$'
type Filters struct {
	BlockedDomains []string `yaml:"blockedDomains"`
	GenericTitles  []string `yaml:"genericTitles"`
}

// DefaultFilters matches the curated block list shipped with the service.
func DefaultFilters() Filters {
	return Filters{
		BlockedDomains: []string{
			"news.google.com",
			"consent.google.com",
			"removed.com",
		},
		GenericTitles: []string{
			`\|\s*Topic\s*$`,
			`\|\s*Homeland Security\s*$`,
			`^Google News$`,
			`^\s*Latest News\s*$`,
		},
	}
}

// LoadFilters reads the filter config from a YAML file, falling back to the
// defaults when the file is absent.
func LoadFilters(path string) Filters {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("filters config not found, using defaults", "path", path)
		return DefaultFilters()
	}
	defer f.Close()

	var filters Filters
	if err := yaml.NewDecoder(f).Decode(&filters); err != nil {
		logger.Warn("failed to parse filters config, using defaults", "path", path, "error", err)
		return DefaultFilters()
	}
	if len(filters.BlockedDomains) == 0 && len(filters.GenericTitles) == 0 {
		return DefaultFilters()
	}
	return filters
}

// Normalizer applies domain/title filtering and URL deduplication. Pure over
// its input; safe to reuse across runs.
type Normalizer struct {
	blockedDomains map[string]struct{}
	genericTitles  []*regexp.Regexp
}

func New(filters Filters) *Normalizer {
	n := &Normalizer{
		blockedDomains: make(map[string]struct{}, len(filters.BlockedDomains)),
	}
	for _, d := range filters.BlockedDomains {
		n.blockedDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	for _, p := range filters.GenericTitles {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("skipping invalid generic-title pattern", "pattern", p, "error", err)
			continue
		}
		n.genericTitles = append(n.genericTitles, re)
	}
	return n
}

// NormalizeURL produces the deduplication key for a URL: query string and
// fragment stripped, trailing slash removed, lowercased.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	u.RawQuery = ""
	u.Fragment = ""
	s := strings.TrimSuffix(u.String(), "/")
	return strings.ToLower(s)
}

// Domain extracts the bare hostname of a URL, without the www prefix.
// Returns the input unchanged when it does not parse as a URL.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// Filter drops blocked-domain and generic-title results, then removes URL
// duplicates. First occurrence wins. Running Filter on its own output yields
// an identical set.
func (n *Normalizer) Filter(results []model.RawSearchResult) []model.RawSearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]model.RawSearchResult, 0, len(results))

	for _, r := range results {
		if r.URL == "" || strings.TrimSpace(r.Title) == "" {
			continue
		}
		if n.isBlockedDomain(r.URL) {
			logger.Debug("dropping blocked domain", "url", r.URL)
			continue
		}
		if n.isGenericTitle(r.Title) {
			logger.Debug("dropping generic title", "title", r.Title)
			continue
		}

		key := NormalizeURL(r.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out
}

// DedupeEventsByTitle removes events whose title is byte-identical to an
// earlier one. Catches the same story re-published under different URLs.
func DedupeEventsByTitle(events []model.ThreatEvent) []model.ThreatEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]model.ThreatEvent, 0, len(events))

	for _, e := range events {
		if _, dup := seen[e.Title]; dup {
			continue
		}
		seen[e.Title] = struct{}{}
		out = append(out, e)
	}

	return out
}

func (n *Normalizer) isBlockedDomain(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if _, blocked := n.blockedDomains[host]; blocked {
		return true
	}
	// Match parent domains too: sub.example.com is blocked by example.com.
	for d := range n.blockedDomains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (n *Normalizer) isGenericTitle(title string) bool {
	for _, re := range n.genericTitles {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
