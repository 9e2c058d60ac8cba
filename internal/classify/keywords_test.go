package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"threatmap/internal/model"
)

func TestKeywordClassifyCategories(t *testing.T) {
	cases := []struct {
		title    string
		category model.Category
		level    model.ThreatLevel
	}{
		{"Suicide bomb at checkpoint", model.CategoryTerrorism, model.ThreatCritical},
		{"Airstrike destroys depot", model.CategoryConflict, model.ThreatHigh},
		{"Earthquake shakes coastal region", model.CategoryDisaster, model.ThreatHigh},
		{"Ransomware cripples hospital network", model.CategoryCyber, model.ThreatHigh},
		{"Protest blocks main avenue", model.CategoryProtest, model.ThreatMedium},
		{"Cholera outbreak spreads", model.CategoryHealth, model.ThreatMedium},
		{"Sanctions package announced", model.CategoryEconomic, model.ThreatLow},
		{"Leaders meet at summit", model.CategoryDiplomatic, model.ThreatInfo},
	}

	for _, tc := range cases {
		v := KeywordClassify(tc.title, "")
		assert.Equal(t, tc.category, v.Category, tc.title)
		assert.Equal(t, tc.level, v.ThreatLevel, tc.title)
	}
}

func TestKeywordClassifyDefault(t *testing.T) {
	v := KeywordClassify("Quiet day reported", "Nothing notable happened today.")
	assert.Equal(t, model.CategoryDiplomatic, v.Category)
	assert.Equal(t, model.ThreatInfo, v.ThreatLevel)
	assert.Empty(t, v.Keywords)
}

func TestKeywordClassifyEscalation(t *testing.T) {
	v := KeywordClassify("Riot in the capital", "Dozens killed as the riot spread.")
	assert.Equal(t, model.CategoryProtest, v.Category)
	assert.Equal(t, model.ThreatHigh, v.ThreatLevel) // medium bumped by "killed"
}

func TestKeywordShortTokensNeedWordBoundary(t *testing.T) {
	// "war" inside "warehouse" must not trigger the conflict rule.
	v := KeywordClassify("Warehouse fire under control", "A warehouse caught fire overnight.")
	assert.NotEqual(t, model.CategoryConflict, v.Category)
}

func TestShortKeywordPatternsPrecompiled(t *testing.T) {
	for _, rule := range categoryRules {
		for _, k := range rule.keywords {
			if !strings.Contains(k, " ") && len(k) <= 4 {
				assert.Contains(t, wordBoundary, k)
			}
		}
	}
	assert.Contains(t, wordBoundary, "war")
	assert.Contains(t, wordBoundary, "ied")
	assert.Contains(t, wordBoundary, "dead")
}

func TestExtractLocationCandidates(t *testing.T) {
	text := "Fighting intensified in Eastern Ukraine on Monday. Shells landed near Kharkiv. " +
		"In March the talks collapsed. Ships were attacked off the coast of Somalia."

	got := ExtractLocationCandidates(text)
	assert.Contains(t, got, "Eastern Ukraine")
	assert.Contains(t, got, "Kharkiv")
	assert.Contains(t, got, "Somalia")
	assert.NotContains(t, got, "March")
}

func TestExtractLocationCandidatesDedup(t *testing.T) {
	got := ExtractLocationCandidates("Riots in Paris continued. Police in Paris responded.")
	assert.Equal(t, []string{"Paris"}, got)
}
