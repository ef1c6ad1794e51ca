package config

import "sync"

// BuiltinConfig holds the configuration shipped with the binary: every
// agent/tool/provider the system understands, with safe defaults users
// override in research.yaml rather than having to restate from scratch.
type BuiltinConfig struct {
	Agents          map[string]AgentConfig
	Tools           map[string]ToolConfig
	LLMProviders    map[string]LLMProviderConfig
	MaskingPatterns map[string]MaskingPattern
}

// MaskingPattern is a single named regex sweep pkg/masking applies to audit
// payloads before they hit disk.
type MaskingPattern struct {
	Pattern     string
	Replacement string
	Description string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration.
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Agents:          initBuiltinAgents(),
		Tools:           initBuiltinTools(),
		LLMProviders:    initBuiltinLLMProviders(),
		MaskingPatterns: initBuiltinMaskingPatterns(),
	}
}

// initBuiltinAgents returns one entry per specialized agent (§4.7), bound
// to the "anthropic-default" provider unless research.yaml overrides it.
func initBuiltinAgents() map[string]AgentConfig {
	return map[string]AgentConfig{
		"picot_writing": {
			Provider: "anthropic-default", MaxTokens: 4096,
			Description: "Drafts and refines PICOT questions",
		},
		"pubmed_search": {
			Provider: "anthropic-default", MaxTokens: 4096,
			Tools:       []string{"pubmed"},
			Description: "Searches PubMed for clinical literature",
		},
		"arxiv_search": {
			Provider: "anthropic-default", MaxTokens: 4096,
			Tools:       []string{"arxiv"},
			Description: "Searches ArXiv for preprint literature",
		},
		"nursing_multi_source": {
			Provider: "anthropic-default", MaxTokens: 4096,
			Tools:       []string{"pubmed", "clinicaltrials", "medrxiv"},
			Description: "Fans out a nursing-practice question across multiple bibliographic sources",
		},
		"timeline_planner": {
			Provider: "anthropic-default", MaxTokens: 2048,
			Description: "Tracks project milestones and answers scheduling questions",
		},
		"data_analysis": {
			Provider: "anthropic-default", MaxTokens: 1024,
			Description: "Scopes a statistical analysis plan (design, power, sample size)",
		},
		"citation_validation": {
			Provider: "anthropic-default", MaxTokens: 2048,
			Tools:       []string{"core", "semanticscholar"},
			Description: "Grades findings for retraction status and evidence quality",
		},
	}
}

// initBuiltinTools returns the 10 tool adapters pkg/tools implements, with
// no credentials set — research.yaml supplies the ones an install needs,
// and absence disables the optional ones (§4.3).
func initBuiltinTools() map[string]ToolConfig {
	return map[string]ToolConfig{
		"pubmed":          {},
		"arxiv":           {},
		"clinicaltrials":  {},
		"medrxiv":         {},
		"openfda":         {},
		"doaj":            {},
		"core":            {},
		"semanticscholar": {},
		"websearch":       {},
		"documents":       {AllowedDomains: []string{"github.com", "raw.githubusercontent.com"}},
	}
}

func initBuiltinLLMProviders() map[string]LLMProviderConfig {
	return map[string]LLMProviderConfig{
		"anthropic-default": {
			Model:     "claude-sonnet-4-20250514",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			MaxTokens: 4096,
		},
	}
}

// initBuiltinMaskingPatterns returns the fixed sweep of secret-shaped regexes
// pkg/masking.RedactText applies to every audit payload. There is no per-tool
// or per-server override here (no MCP servers, no custom pattern groups in
// this domain) — every audit entry gets the same sweep.
func initBuiltinMaskingPatterns() map[string]MaskingPattern {
	return map[string]MaskingPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[MASKED_API_KEY]"`,
			Description: "API keys",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[MASKED_TOKEN]"`,
			Description: "Access tokens",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[MASKED_CERTIFICATE]`,
			Description: "PEM certificates and keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"github_token": {
			Pattern:     `(?i)gh[ps]_[A-Za-z0-9_]{36,255}`,
			Replacement: `[MASKED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
	}
}
