package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"threatmap/internal/llm"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubProvider) Stream(ctx context.Context, messages []llm.Message) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

const ukrainianSample = "Вибух пролунав у центрі міста, повідомляють місцеві жителі. Рятувальники працюють на місці події."

func TestLooksEnglish(t *testing.T) {
	assert.True(t, LooksEnglish("The army was deployed to the region after the attack on the base."))
	assert.False(t, LooksEnglish(ukrainianSample))
	assert.True(t, LooksEnglish(""))
}

func TestTranslateSkipsEnglish(t *testing.T) {
	stub := &stubProvider{response: `{"title":"x","content":"y","language":"uk"}`}
	tr := New(stub)

	res := tr.Translate(context.Background(), "Protest in the capital", "Thousands gathered in the square to protest against the new law.")
	assert.False(t, res.WasTranslated)
	assert.Equal(t, "Protest in the capital", res.Title)
	assert.Equal(t, "en", res.OriginalLanguage)
	assert.Zero(t, stub.calls)
}

func TestTranslateNilProvider(t *testing.T) {
	tr := New(nil)

	res := tr.Translate(context.Background(), "Вибух у місті", ukrainianSample)
	assert.False(t, res.WasTranslated)
	assert.Equal(t, "Вибух у місті", res.Title)
	assert.Equal(t, "unknown", res.OriginalLanguage)
}

func TestTranslateSuccess(t *testing.T) {
	stub := &stubProvider{
		response: "Here is the translation:\n```json\n{\"title\": \"Explosion in city center\", \"content\": \"Rescuers are working at the scene.\", \"language\": \"uk\"}\n```",
	}
	tr := New(stub)

	res := tr.Translate(context.Background(), "Вибух у місті", ukrainianSample)
	assert.True(t, res.WasTranslated)
	assert.Equal(t, "Explosion in city center", res.Title)
	assert.Equal(t, "Rescuers are working at the scene.", res.Content)
	assert.Equal(t, "uk", res.OriginalLanguage)
	assert.Equal(t, 1, stub.calls)
}

func TestTranslateFailuresReturnOriginal(t *testing.T) {
	cases := map[string]*stubProvider{
		"transport error": {err: errors.New("connection refused")},
		"no json":         {response: "sorry, I cannot help with that"},
		"malformed json":  {response: `{"title": 42}`},
		"empty title":     {response: `{"title":"", "content":"x", "language":"uk"}`},
	}

	for name, stub := range cases {
		tr := New(stub)
		res := tr.Translate(context.Background(), "Вибух у місті", ukrainianSample)
		assert.False(t, res.WasTranslated, name)
		assert.Equal(t, "Вибух у місті", res.Title, name)
		assert.Equal(t, ukrainianSample, res.Content, name)
		assert.Equal(t, "unknown", res.OriginalLanguage, name)
	}
}
