package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"threatmap/internal/model"
)

func sampleEvents() []model.ThreatEvent {
	return []model.ThreatEvent{
		{
			Title:       "Airstrike in Kyiv",
			Summary:     "An airstrike hit the port district.",
			Category:    model.CategoryConflict,
			ThreatLevel: model.ThreatHigh,
			Location:    &model.GeoLocation{PlaceName: "Kyiv", Country: "Ukraine"},
		},
		{
			Title:       "Cholera outbreak",
			Summary:     "Cases rising in the camps.",
			Category:    model.CategoryHealth,
			ThreatLevel: model.ThreatMedium,
			Location:    &model.GeoLocation{Country: "Kenya"},
		},
	}
}

func TestStreamRequiresProviderAndEvents(t *testing.T) {
	r := New(nil)
	assert.False(t, r.Available())

	_, err := r.Stream(context.Background(), sampleEvents())
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleEvents())

	assert.Contains(t, prompt, "Airstrike in Kyiv")
	assert.Contains(t, prompt, "conflict/high")
	assert.Contains(t, prompt, "Kyiv, Ukraine")
	assert.Contains(t, prompt, "Cholera outbreak")
	assert.Contains(t, prompt, "(Kenya)")
}

func TestBuildPromptCapsEvents(t *testing.T) {
	events := make([]model.ThreatEvent, maxPromptEvents+20)
	for i := range events {
		events[i] = model.ThreatEvent{Title: "Event", Category: model.CategoryConflict, ThreatLevel: model.ThreatHigh}
	}

	prompt := buildPrompt(events)
	assert.NotContains(t, prompt, "41.")
	assert.Contains(t, prompt, "40.")
}
