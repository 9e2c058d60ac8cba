package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaProvider speaks the Ollama /api/chat protocol: newline-delimited
// JSON objects, each carrying message.content, the final one flagged done.
type ollamaProvider struct {
	baseURL    string
	model      string
	temp       float64
	numPredict int
	httpClient *http.Client
}

func newOllamaProvider(s Settings) (*ollamaProvider, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("ollama provider requires a base URL")
	}
	model := s.Model
	if model == "" {
		model = "llama3.1"
	}
	return &ollamaProvider{
		baseURL:    strings.TrimSuffix(s.BaseURL, "/"),
		model:      model,
		temp:       s.Temperature,
		numPredict: s.MaxTokens,
		// No client-level timeout: streams can legitimately run long and
		// callers bound every request with a context deadline.
		httpClient: &http.Client{},
	}, nil
}

func (p *ollamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []Message              `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (p *ollamaProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama completion: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama completion: %s", out.Error)
	}
	return out.Message.Content, nil
}

func (p *ollamaProvider) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	resp, err := p.send(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var frame ollamaChatResponse
			if err := json.Unmarshal(line, &frame); err != nil {
				continue // tolerate malformed frames mid-stream
			}
			if frame.Error != "" {
				select {
				case out <- Chunk{Err: fmt.Errorf("ollama stream: %s", frame.Error)}:
				case <-ctx.Done():
				}
				return
			}
			if frame.Message.Content != "" {
				select {
				case out <- Chunk{Content: frame.Message.Content}:
				case <-ctx.Done():
					return
				}
			}
			if frame.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (p *ollamaProvider) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama list models: status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama list models: decode: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (p *ollamaProvider) send(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	payload := ollamaChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   stream,
	}
	if p.temp > 0 || p.numPredict > 0 {
		payload.Options = map[string]interface{}{}
		if p.temp > 0 {
			payload.Options["temperature"] = p.temp
		}
		if p.numPredict > 0 {
			payload.Options["num_predict"] = p.numPredict
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
