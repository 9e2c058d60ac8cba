// Package classify assigns a category, threat level, and location to an
// article. The AI path runs first when a provider is configured; the
// keyword path is the deterministic fallback that always produces a
// verdict.
package classify

import (
	"context"
	"encoding/json"
	"strings"

	"threatmap/internal/geocode"
	"threatmap/internal/llm"
	"threatmap/internal/logger"
	"threatmap/internal/metrics"
	"threatmap/internal/model"
)

const systemPrompt = `You are a geopolitical threat analyst. Classify the news article into exactly one category and one threat level, and extract its most granular location (city over region over country).

Categories: conflict, protest, disaster, diplomatic, economic, terrorism, cyber, health, environmental, military, crime, piracy, infrastructure, commodities.
Threat levels: critical, high, medium, low, info.

Respond with JSON only, no prose, no markdown fences:
{"category": "...", "threatLevel": "...", "primaryLocation": "...", "city": "...", "region": "...", "country": "..."}
Use empty strings for location parts you cannot determine.`

// VerdictState tags how much of the AI response survived validation.
type VerdictState int

const (
	// VerdictValidated: category and threat level both passed enum
	// validation.
	VerdictValidated VerdictState = iota
	// VerdictPartial: the response parsed, but at least one field failed
	// validation; the raw fields are preserved for the caller to patch.
	VerdictPartial
)

// AIVerdict is the validated form of one AI classification response.
// Callers must check State before trusting Category/ThreatLevel.
type AIVerdict struct {
	State           VerdictState
	Category        model.Category
	ThreatLevel     model.ThreatLevel
	PrimaryLocation string
	City            string
	Region          string
	Country         string
	Raw             map[string]string
}

type Classifier struct {
	provider llm.Provider // nil means keyword-only
	geocoder *geocode.Geocoder
	metrics  *metrics.Metrics
}

func New(provider llm.Provider, geocoder *geocode.Geocoder, m *metrics.Metrics) *Classifier {
	return &Classifier{provider: provider, geocoder: geocoder, metrics: m}
}

// Outcome bundles the classification with the metadata the pipeline
// attaches to the finished event.
type Outcome struct {
	model.ClassificationResult
	Keywords []string // keyword-rule hits, empty when nothing matched
	UsedAI   bool
}

// Classify produces a classification for the article. It never returns an
// error: the AI path degrades to the keyword path, and a missing location
// is reported as a nil Location for the caller to filter.
func (c *Classifier) Classify(ctx context.Context, title, content string) Outcome {
	var verdict *AIVerdict
	if c.provider != nil {
		verdict = c.classifyAI(ctx, title, content)
	}

	keyword := KeywordClassify(title, content)

	result := model.ClassificationResult{
		Category:    keyword.Category,
		ThreatLevel: keyword.ThreatLevel,
	}

	var candidates []string
	switch {
	case verdict == nil:
		c.metrics.IncrementKeywordClassifications()
		candidates = keyword.LocationCandidates
	case verdict.State == VerdictValidated:
		c.metrics.IncrementAIClassifications()
		result.Category = verdict.Category
		result.ThreatLevel = verdict.ThreatLevel
		candidates = locationCascade(verdict)
	default: // partial: keep whatever validated, patch the rest from keywords
		c.metrics.IncrementAIClassifications()
		if verdict.Category != "" {
			result.Category = verdict.Category
		}
		if verdict.ThreatLevel != "" {
			result.ThreatLevel = verdict.ThreatLevel
		}
		candidates = locationCascade(verdict)
	}

	// AI location candidates exhausted without a hit: fall back to the
	// regex extractor before giving up.
	result.Location = c.resolveFirst(ctx, candidates)
	if result.Location == nil && verdict != nil {
		result.Location = c.resolveFirst(ctx, keyword.LocationCandidates)
	}

	return Outcome{
		ClassificationResult: result,
		Keywords:             keyword.Keywords,
		UsedAI:               verdict != nil,
	}
}

// locationCascade orders candidate strings from most to least specific:
// city+region+country, primaryLocation verbatim, region+country, country.
func locationCascade(v *AIVerdict) []string {
	var candidates []string

	if full := joinParts(v.City, v.Region, v.Country); full != "" {
		candidates = append(candidates, full)
	}
	if v.PrimaryLocation != "" {
		candidates = append(candidates, v.PrimaryLocation)
	}
	if partial := joinParts(v.Region, v.Country); partial != "" {
		candidates = append(candidates, partial)
	}
	if v.Country != "" {
		candidates = append(candidates, v.Country)
	}

	return candidates
}

func (c *Classifier) resolveFirst(ctx context.Context, candidates []string) *model.GeoLocation {
	for _, candidate := range candidates {
		if loc := c.geocoder.Resolve(ctx, candidate); loc != nil {
			return loc
		}
	}
	return nil
}

// classifyAI runs the AI path. Any transport error, parse failure, or fully
// invalid response yields nil and control passes to the keyword path.
func (c *Classifier) classifyAI(ctx context.Context, title, content string) *AIVerdict {
	prompt := "Title: " + title + "\n\n" + truncate(content, 4000)

	response, err := c.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		logger.Warn("ai classification failed, using keyword fallback", "error", err)
		return nil
	}

	verdict := ParseAIResponse(response)
	if verdict == nil {
		logger.Warn("unparseable ai classification response, using keyword fallback")
	}
	return verdict
}

// ParseAIResponse extracts and validates the classification JSON from a raw
// LLM response. A response with invalid enum values is returned as a
// partial verdict rather than discarded; nil means nothing usable parsed.
func ParseAIResponse(response string) *AIVerdict {
	block, ok := llm.ExtractJSONObject(response)
	if !ok {
		return nil
	}

	var raw struct {
		Category        string `json:"category"`
		ThreatLevel     string `json:"threatLevel"`
		PrimaryLocation string `json:"primaryLocation"`
		City            string `json:"city"`
		Region          string `json:"region"`
		Country         string `json:"country"`
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil
	}

	verdict := &AIVerdict{
		State:           VerdictValidated,
		PrimaryLocation: strings.TrimSpace(raw.PrimaryLocation),
		City:            strings.TrimSpace(raw.City),
		Region:          strings.TrimSpace(raw.Region),
		Country:         strings.TrimSpace(raw.Country),
		Raw: map[string]string{
			"category":    raw.Category,
			"threatLevel": raw.ThreatLevel,
		},
	}

	category, catOK := model.ParseCategory(raw.Category)
	level, lvlOK := model.ParseThreatLevel(raw.ThreatLevel)
	if catOK {
		verdict.Category = category
	}
	if lvlOK {
		verdict.ThreatLevel = level
	}
	if !catOK || !lvlOK {
		verdict.State = VerdictPartial
	}

	return verdict
}

func joinParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
