// Package summary produces a streamed situation report over the current
// set of threat events.
package summary

import (
	"context"
	"fmt"
	"strings"

	"threatmap/internal/llm"
	"threatmap/internal/model"
)

const systemPrompt = `You are a geopolitical risk analyst. You receive a list of current world events with categories, threat levels and locations. Write a concise situation report in English:
- Open with a one-paragraph global overview.
- Then cover the most severe events first, grouped by region.
- Plain prose, no markdown headers, no bullet points.
- Do not invent events that are not in the list.`

// Cap on how many events go into the prompt. The events arrive sorted by
// severity, so the cut keeps the most important ones.
const maxPromptEvents = 40

type Reporter struct {
	provider llm.Provider // nil disables reporting
}

func New(provider llm.Provider) *Reporter {
	return &Reporter{provider: provider}
}

// Available reports whether a report can be generated at all.
func (r *Reporter) Available() bool {
	return r.provider != nil
}

// Stream generates the situation report as a chunk stream. The channel is
// closed when the report ends or ctx is canceled.
func (r *Reporter) Stream(ctx context.Context, events []model.ThreatEvent) (<-chan llm.Chunk, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to report on")
	}

	return r.provider.Stream(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildPrompt(events)},
	})
}

func buildPrompt(events []model.ThreatEvent) string {
	if len(events) > maxPromptEvents {
		events = events[:maxPromptEvents]
	}

	var b strings.Builder
	b.WriteString("Current events:\n")
	for i, e := range events {
		place := ""
		if e.Location != nil {
			place = e.Location.PlaceName
			if e.Location.Country != "" && e.Location.Country != place {
				if place != "" {
					place += ", "
				}
				place += e.Location.Country
			}
		}
		fmt.Fprintf(&b, "%d. [%s/%s] %s (%s) - %s\n",
			i+1, e.Category, e.ThreatLevel, e.Title, place, e.Summary)
	}
	return b.String()
}
