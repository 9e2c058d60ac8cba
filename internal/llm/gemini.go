package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// geminiProvider adapts Google's generative AI API to the Provider
// interface.
type geminiProvider struct {
	client *genai.Client
	model  string
	temp   float64
	maxTok int
}

func newGeminiProvider(s Settings) (*geminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := s.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &geminiProvider{
		client: client,
		model:  model,
		temp:   s.Temperature,
		maxTok: s.MaxTokens,
	}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) generative(messages []Message) (*genai.GenerativeModel, genai.Text) {
	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(float32(p.temp))
	if p.maxTok > 0 {
		m.SetMaxOutputTokens(int32(p.maxTok))
	}

	var system, user []string
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
		} else {
			user = append(user, msg.Content)
		}
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}

	return m, genai.Text(strings.Join(user, "\n\n"))
}

func (p *geminiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	m, prompt := p.generative(messages)

	resp, err := m.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	content := joinGeminiParts(resp)
	if content == "" {
		return "", fmt.Errorf("gemini completion: no response")
	}
	return content, nil
}

func (p *geminiProvider) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	m, prompt := p.generative(messages)
	iter := m.GenerateContentStream(ctx, prompt)

	out := make(chan Chunk)
	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- Chunk{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			content := joinGeminiParts(resp)
			if content == "" {
				continue
			}
			select {
			case out <- Chunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (p *geminiProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := p.client.ListModels(ctx)
	var names []string
	for {
		info, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini list models: %w", err)
		}
		names = append(names, info.Name)
	}
	return names, nil
}

func joinGeminiParts(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
