package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMProviderRegistryGetKnownProvider(t *testing.T) {
	r := NewLLMProviderRegistry(map[string]*LLMProviderConfig{
		"anthropic-default": {Model: "claude-sonnet-4-20250514", APIKeyEnv: "ANTHROPIC_API_KEY", MaxTokens: 4096},
	})
	p, err := r.Get("anthropic-default")
	assert.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", p.Model)
}

func TestLLMProviderRegistryGetUnknownReturnsErr(t *testing.T) {
	r := NewLLMProviderRegistry(map[string]*LLMProviderConfig{})
	_, err := r.Get("nonexistent")
	assert.ErrorIs(t, err, ErrLLMProviderNotFound)
}
