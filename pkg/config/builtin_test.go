package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuiltinConfigIncludesAllSevenAgents(t *testing.T) {
	builtin := GetBuiltinConfig()
	want := []string{
		"picot_writing", "pubmed_search", "arxiv_search", "nursing_multi_source",
		"timeline_planner", "data_analysis", "citation_validation",
	}
	for _, key := range want {
		_, ok := builtin.Agents[key]
		assert.True(t, ok, "missing built-in agent %s", key)
	}
}

func TestGetBuiltinConfigIncludesTenToolAdapters(t *testing.T) {
	builtin := GetBuiltinConfig()
	assert.Len(t, builtin.Tools, 10)
}

func TestGetBuiltinConfigEveryAgentReferencesAConfiguredProvider(t *testing.T) {
	builtin := GetBuiltinConfig()
	for key, a := range builtin.Agents {
		_, ok := builtin.LLMProviders[a.Provider]
		assert.True(t, ok, "agent %s references unconfigured provider %s", key, a.Provider)
	}
}

func TestGetBuiltinConfigIsSingleton(t *testing.T) {
	assert.Same(t, GetBuiltinConfig(), GetBuiltinConfig())
}

func TestGetBuiltinConfigIncludesMaskingPatterns(t *testing.T) {
	builtin := GetBuiltinConfig()
	for _, name := range []string{"api_key", "token", "private_key", "certificate", "aws_access_key", "github_token"} {
		_, ok := builtin.MaskingPatterns[name]
		assert.True(t, ok, "missing masking pattern %s", name)
	}
}
