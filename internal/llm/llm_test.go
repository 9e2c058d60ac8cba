package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"prose before {\"a\": {\"b\": 2}} prose after", `{"a": {"b": 2}}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{`{"s":"brace } inside string"} trailing`, `{"s":"brace } inside string"}`, true},
		{`{"s":"escaped \" quote"}`, `{"s":"escaped \" quote"}`, true},
		{"no json at all", "", false},
		{`{"unterminated": 1`, "", false},
	}

	for _, tc := range cases {
		got, ok := ExtractJSONObject(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNewProviderDispatch(t *testing.T) {
	p, err := NewProvider(Settings{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(Settings{Provider: "lmstudio", BaseURL: "http://localhost:1234/v1"})
	require.NoError(t, err)
	assert.Equal(t, "lmstudio", p.Name())

	p, err = NewProvider(Settings{Provider: "ollama", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider(Settings{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewProviderOllamaRequiresBaseURL(t *testing.T) {
	_, err := NewProvider(Settings{Provider: "ollama"})
	assert.Error(t, err)
}
