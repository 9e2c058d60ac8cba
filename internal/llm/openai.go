package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// openaiProvider speaks the OpenAI chat-completion API. It also covers
// LM Studio and any other OpenAI-compatible server via a custom base URL.
type openaiProvider struct {
	client *openai.Client
	name   string
	model  string
	temp   float64
	maxTok int
}

func newOpenAIProvider(s Settings) (*openaiProvider, error) {
	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}

	model := s.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	name := "openai"
	if s.Provider == "lmstudio" || s.Provider == "openai-compatible" {
		name = s.Provider
	}

	return &openaiProvider{
		client: openai.NewClientWithConfig(cfg),
		name:   name,
		model:  model,
		temp:   s.Temperature,
		maxTok: s.MaxTokens,
	}, nil
}

func (p *openaiProvider) Name() string { return p.name }

func (p *openaiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(p.temp),
		MaxTokens:   p.maxTok,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: empty choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openaiProvider) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(p.temp),
		MaxTokens:   p.maxTok,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", p.name, err)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// Cancellation closes the underlying connection; discard
				// the resulting read error.
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- Chunk{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- Chunk{Content: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (p *openaiProvider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s list models: %w", p.name, err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
