package classify

import (
	"regexp"
	"strings"

	"threatmap/internal/model"
)

// KeywordVerdict is the deterministic fallback classification. It always
// carries a category and threat level, even with no LLM configured.
type KeywordVerdict struct {
	Category           model.Category
	ThreatLevel        model.ThreatLevel
	Keywords           []string
	LocationCandidates []string
}

// categoryRule maps trigger keywords to one category and its default threat
// level. Rules are checked in order; the first match wins, so the more
// severe and more specific categories come first.
type categoryRule struct {
	category model.Category
	level    model.ThreatLevel
	keywords []string
}

var categoryRules = []categoryRule{
	{model.CategoryTerrorism, model.ThreatCritical, []string{
		"terrorist", "terror attack", "suicide bomb", "car bomb", "ied",
		"hostage", "extremist attack",
	}},
	{model.CategoryConflict, model.ThreatHigh, []string{
		"airstrike", "air strike", "shelling", "missile strike", "invasion",
		"offensive", "front line", "artillery", "drone strike", "clashes",
		"war", "ceasefire violation",
	}},
	{model.CategoryMilitary, model.ThreatMedium, []string{
		"military exercise", "troop", "deployment", "warship", "fighter jet",
		"mobilization", "missile test", "defense ministry",
	}},
	{model.CategoryDisaster, model.ThreatHigh, []string{
		"earthquake", "flood", "hurricane", "typhoon", "tsunami", "wildfire",
		"volcano", "landslide", "cyclone", "tornado",
	}},
	{model.CategoryPiracy, model.ThreatHigh, []string{
		"piracy", "pirates", "hijacked vessel", "ship seized", "boarding attempt",
	}},
	{model.CategoryCyber, model.ThreatHigh, []string{
		"cyberattack", "cyber attack", "ransomware", "data breach", "hacked",
		"malware", "ddos", "phishing campaign",
	}},
	{model.CategoryCrime, model.ThreatMedium, []string{
		"shooting", "murder", "kidnapping", "cartel", "trafficking",
		"armed robbery", "gang violence",
	}},
	{model.CategoryProtest, model.ThreatMedium, []string{
		"protest", "demonstration", "riot", "strike action", "unrest",
		"march against", "clashes with police",
	}},
	{model.CategoryHealth, model.ThreatMedium, []string{
		"outbreak", "epidemic", "pandemic", "virus", "cholera", "ebola",
		"disease", "quarantine",
	}},
	{model.CategoryEnvironmental, model.ThreatLow, []string{
		"pollution", "oil spill", "deforestation", "drought", "heatwave",
		"climate", "contamination",
	}},
	{model.CategoryInfrastructure, model.ThreatMedium, []string{
		"power outage", "blackout", "pipeline", "grid failure", "bridge collapse",
		"rail disruption", "port closure",
	}},
	{model.CategoryCommodities, model.ThreatLow, []string{
		"oil price", "grain export", "wheat", "opec", "commodity", "lng",
		"supply disruption",
	}},
	{model.CategoryEconomic, model.ThreatLow, []string{
		"sanctions", "inflation", "recession", "default", "currency crisis",
		"central bank", "trade dispute",
	}},
	{model.CategoryDiplomatic, model.ThreatInfo, []string{
		"summit", "ambassador", "treaty", "negotiations", "diplomatic",
		"foreign minister", "bilateral talks",
	}},
}

// escalators bump the threat level one step when casualties or scale
// indicators appear alongside a match.
var escalators = []string{
	"killed", "dead", "casualties", "fatalities", "mass evacuation",
	"state of emergency", "nuclear",
}

// wordBoundary precompiles the boundary patterns for every short single
// token in the rule tables, so matchAny never compiles per call.
var wordBoundary = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	add := func(keywords []string) {
		for _, k := range keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" || strings.Contains(k, " ") || len(k) > 4 {
				continue
			}
			if _, ok := patterns[k]; !ok {
				patterns[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			}
		}
	}
	for _, rule := range categoryRules {
		add(rule.keywords)
	}
	add(escalators)
	return patterns
}()

// KeywordClassify runs the fixed keyword rules against title+content.
// Articles matching nothing fall through to diplomatic/info, the least
// alarming bucket.
func KeywordClassify(title, content string) KeywordVerdict {
	text := strings.ToLower(title + " " + content)

	verdict := KeywordVerdict{
		Category:    model.CategoryDiplomatic,
		ThreatLevel: model.ThreatInfo,
	}

	for _, rule := range categoryRules {
		if matched, hits := matchAny(text, rule.keywords); matched {
			verdict.Category = rule.category
			verdict.ThreatLevel = rule.level
			verdict.Keywords = hits
			break
		}
	}

	if matched, _ := matchAny(text, escalators); matched {
		verdict.ThreatLevel = escalate(verdict.ThreatLevel)
	}

	verdict.LocationCandidates = ExtractLocationCandidates(title + ". " + content)
	return verdict
}

// matchAny distinguishes phrases from single words: phrases match as
// substrings, short tokens require word boundaries so "war" does not match
// "warehouse".
func matchAny(text string, keywords []string) (bool, []string) {
	var hits []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") {
			if strings.Contains(text, k) {
				hits = append(hits, k)
			}
			continue
		}

		if len(k) <= 4 {
			re, ok := wordBoundary[k]
			if !ok {
				re = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			}
			if re.MatchString(text) {
				hits = append(hits, k)
			}
			continue
		}

		if strings.Contains(text, k) {
			hits = append(hits, k)
		}
	}
	return len(hits) > 0, hits
}

func escalate(level model.ThreatLevel) model.ThreatLevel {
	switch level {
	case model.ThreatInfo:
		return model.ThreatLow
	case model.ThreatLow:
		return model.ThreatMedium
	case model.ThreatMedium:
		return model.ThreatHigh
	default:
		return model.ThreatCritical
	}
}

// locationPattern captures capitalized word runs after location
// prepositions: "in Eastern Ukraine", "near Mariupol", "off the coast of
// Somalia".
var locationPattern = regexp.MustCompile(
	`(?:\bin|\bnear|\bat|\bacross|\boutside|\bcoast of)\s+((?:[A-Z][\p{L}'-]+)(?:\s+(?:of\s+)?[A-Z][\p{L}'-]+){0,2})`)

// sentenceStarters are capitalized words the pattern tends to catch that
// are never places.
var sentenceStarters = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "It": {}, "He": {}, "She": {}, "They": {},
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {},
	"June": {}, "July": {}, "August": {}, "September": {}, "October": {},
	"November": {}, "December": {},
}

// ExtractLocationCandidates pulls likely place names out of free text,
// ordered by first appearance, duplicates removed.
func ExtractLocationCandidates(text string) []string {
	matches := locationPattern.FindAllStringSubmatch(text, 8)

	seen := make(map[string]struct{}, len(matches))
	var candidates []string
	for _, m := range matches {
		candidate := strings.TrimSpace(m[1])
		first := strings.Fields(candidate)[0]
		if _, skip := sentenceStarters[first]; skip {
			continue
		}
		key := strings.ToLower(candidate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, candidate)
	}
	return candidates
}
