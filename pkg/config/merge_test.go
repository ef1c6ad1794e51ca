package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAgentsUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]AgentConfig{
		"picot_writing": {Provider: "anthropic-default", MaxTokens: 4096},
	}
	user := map[string]AgentConfig{
		"picot_writing": {Provider: "anthropic-default", MaxTokens: 8192},
		"custom_agent":  {Provider: "anthropic-default", MaxTokens: 1024},
	}
	merged := mergeAgents(builtin, user)
	assert.Equal(t, 8192, merged["picot_writing"].MaxTokens)
	assert.Equal(t, 1024, merged["custom_agent"].MaxTokens)
}

func TestMergeToolsUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]ToolConfig{"pubmed": {}}
	user := map[string]ToolConfig{"pubmed": {ContactEmail: "a@b.org"}}
	merged := mergeTools(builtin, user)
	assert.Equal(t, "a@b.org", merged["pubmed"].ContactEmail)
}

func TestMergeLLMProvidersAddsNewEntries(t *testing.T) {
	builtin := map[string]LLMProviderConfig{"anthropic-default": {Model: "claude-sonnet-4-20250514"}}
	user := map[string]LLMProviderConfig{"anthropic-fast": {Model: "claude-haiku-4"}}
	merged := mergeLLMProviders(builtin, user)
	assert.Len(t, merged, 2)
	assert.Equal(t, "claude-haiku-4", merged["anthropic-fast"].Model)
}
