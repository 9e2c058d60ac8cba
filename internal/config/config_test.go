package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "none", cfg.LLMProvider)
	assert.Equal(t, 600*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 5, cfg.FallbackThreshold)
	assert.Equal(t, 2, cfg.FallbackMaxBands)
	assert.Equal(t, 48, cfg.CacheTTLHours)
	assert.Equal(t, "https://geocoding-api.open-meteo.com", cfg.GeocodeBaseURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_BASE_URL", "http://localhost:11434")
	t.Setenv("MAX_PER_QUERY", "50")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, 50, cfg.MaxPerQuery)
	assert.True(t, cfg.Debug)
}

func TestValidateProviderEnum(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "smoke-signals")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateProviderRequirements(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	_, err := Load()
	assert.Error(t, err) // missing LLM_API_KEY

	t.Setenv("LLM_API_KEY", "sk-test")
	_, err = Load()
	assert.NoError(t, err)

	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_BASE_URL", "")
	_, err = Load()
	assert.Error(t, err) // missing LLM_BASE_URL

	t.Setenv("LLM_BASE_URL", "http://localhost:11434")
	_, err = Load()
	assert.NoError(t, err)
}
