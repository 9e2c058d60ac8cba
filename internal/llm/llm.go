// Package llm abstracts chat-completion providers behind a single
// interface. Provider-specific wire formats (OpenAI-compatible SSE,
// Ollama NDJSON, Gemini) are normalized into one content-chunk stream.
package llm

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Chunk is one piece of streamed completion content. A chunk with a non-nil
// Err terminates the stream.
type Chunk struct {
	Content string
	Err     error
}

// Settings selects and configures a provider.
type Settings struct {
	Provider    string // "openai" | "lmstudio" | "ollama" | "gemini"
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider is one chat-completion backend. Implementations must honor
// context cancellation mid-stream and close the chunk channel when the
// response finishes.
type Provider interface {
	Name() string

	// Complete issues one chat completion and returns the full content.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Stream issues a streaming completion. The channel is closed when the
	// response ends or ctx is canceled.
	Stream(ctx context.Context, messages []Message) (<-chan Chunk, error)

	// ListModels queries the provider's model listing; doubles as a
	// connectivity check.
	ListModels(ctx context.Context) ([]string, error)
}

// NewProvider constructs the provider named by the settings. The dispatch
// happens here, once, not at the call sites.
func NewProvider(s Settings) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "openai", "lmstudio", "openai-compatible":
		return newOpenAIProvider(s)
	case "ollama":
		return newOllamaProvider(s)
	case "gemini":
		return newGeminiProvider(s)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

// ExtractJSONObject returns the first balanced {...} block in s. LLM
// responses often wrap JSON in prose or markdown fences; this tolerates
// both. Braces inside JSON strings are handled.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
