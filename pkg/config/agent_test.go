package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentRegistryGetKnownKey(t *testing.T) {
	r := NewAgentRegistry(map[string]*AgentConfig{
		"picot_writing": {Provider: "anthropic-default", MaxTokens: 4096},
	})
	cfg, err := r.Get("picot_writing")
	assert.NoError(t, err)
	assert.Equal(t, 4096, cfg.MaxTokens)
}

func TestAgentRegistryGetUnknownKeyReturnsErrAgentNotFound(t *testing.T) {
	r := NewAgentRegistry(map[string]*AgentConfig{})
	_, err := r.Get("nonexistent")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestAgentRegistryHasAndLen(t *testing.T) {
	r := NewAgentRegistry(map[string]*AgentConfig{
		"picot_writing": {Provider: "anthropic-default"},
		"pubmed_search": {Provider: "anthropic-default"},
	})
	assert.True(t, r.Has("picot_writing"))
	assert.False(t, r.Has("nonexistent"))
	assert.Equal(t, 2, r.Len())
}
