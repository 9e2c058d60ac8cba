// Package translate detects non-English articles and rewrites them to
// English through the configured LLM provider. Translation is best effort:
// every failure path returns the original text unchanged.
package translate

import (
	"context"
	"encoding/json"
	"strings"

	"threatmap/internal/llm"
	"threatmap/internal/logger"
)

// englishFunctionWords is the fixed sample set for the cheap language gate.
// Function words are frequent in any English prose regardless of topic.
var englishFunctionWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "of": {}, "for": {},
	"with": {}, "by": {}, "from": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "has": {}, "have": {}, "had": {}, "that": {}, "this": {},
	"it": {}, "as": {}, "be": {}, "not": {}, "will": {}, "after": {},
}

// englishRatioThreshold: above this share of function words the text is
// assumed English and the LLM call is skipped.
const englishRatioThreshold = 0.1

// sampleWordLimit bounds how much text the gate inspects.
const sampleWordLimit = 120

// Result is the translator's output for one article.
type Result struct {
	Title            string
	Content          string
	OriginalLanguage string
	WasTranslated    bool
}

type Translator struct {
	provider llm.Provider // nil disables translation entirely
}

func New(provider llm.Provider) *Translator {
	return &Translator{provider: provider}
}

// LooksEnglish runs the function-word heuristic over a text sample.
func LooksEnglish(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return true
	}
	if len(words) > sampleWordLimit {
		words = words[:sampleWordLimit]
	}

	matches := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if _, ok := englishFunctionWords[w]; ok {
			matches++
		}
	}

	return float64(matches)/float64(len(words)) > englishRatioThreshold
}

const translateSystemPrompt = `You are a translation engine. Translate the given news title and content to English.
Respond with JSON only, no prose, no markdown fences:
{"title": "<english title>", "content": "<english content>", "language": "<ISO 639-1 code of the source language>"}`

// Translate returns the English form of the article. The original text comes
// back untouched when the text already looks English, no provider is
// configured, or the LLM call fails in any way.
func (t *Translator) Translate(ctx context.Context, title, content string) Result {
	original := Result{
		Title:            title,
		Content:          content,
		OriginalLanguage: "en",
		WasTranslated:    false,
	}

	sample := strings.TrimSpace(title + " " + content)
	if sample == "" || LooksEnglish(sample) {
		return original
	}
	if t.provider == nil {
		original.OriginalLanguage = "unknown"
		return original
	}

	payload, err := json.Marshal(map[string]string{"title": title, "content": content})
	if err != nil {
		return original
	}

	response, err := t.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: translateSystemPrompt},
		{Role: llm.RoleUser, Content: string(payload)},
	})
	if err != nil {
		logger.Warn("translation call failed, keeping original text", "error", err)
		original.OriginalLanguage = "unknown"
		return original
	}

	block, ok := llm.ExtractJSONObject(response)
	if !ok {
		logger.Warn("no JSON object in translation response, keeping original text")
		original.OriginalLanguage = "unknown"
		return original
	}

	var parsed struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		logger.Warn("malformed translation JSON, keeping original text", "error", err)
		original.OriginalLanguage = "unknown"
		return original
	}
	if strings.TrimSpace(parsed.Title) == "" {
		original.OriginalLanguage = "unknown"
		return original
	}

	out := Result{
		Title:            strings.TrimSpace(parsed.Title),
		Content:          strings.TrimSpace(parsed.Content),
		OriginalLanguage: strings.TrimSpace(parsed.Language),
		WasTranslated:    true,
	}
	if out.Content == "" {
		out.Content = content
	}
	if out.OriginalLanguage == "" {
		out.OriginalLanguage = "unknown"
	}
	return out
}
