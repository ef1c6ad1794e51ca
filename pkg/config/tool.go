package config

import (
	"fmt"
	"sync"
)

// ToolConfig is one tool adapter's credentials and endpoint tuning (§4.3).
// Most adapters need no credential at all; PubMed requires ContactEmail
// (NCBI's usage policy), and several optional adapters are disabled
// outright when their key fields are left blank rather than failing to
// start — see Registry.Enabled.
type ToolConfig struct {
	ContactEmail   string   `yaml:"contact_email,omitempty"`    // pubmed
	APIKey         string   `yaml:"api_key_env,omitempty"`      // core, semanticscholar (env var name)
	SerpAPIKeyEnv  string   `yaml:"serp_api_key_env,omitempty"` // websearch
	ExaAPIKeyEnv   string   `yaml:"exa_api_key_env,omitempty"`  // websearch
	GitHubTokenEnv string   `yaml:"github_token_env,omitempty"` // documents
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`  // documents
}

// ToolRegistry stores per-adapter tool configuration with thread-safe access.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*ToolConfig
}

// NewToolRegistry builds a registry from a defensive copy of tools.
func NewToolRegistry(tools map[string]*ToolConfig) *ToolRegistry {
	copied := make(map[string]*ToolConfig, len(tools))
	for k, v := range tools {
		copied[k] = v
	}
	return &ToolRegistry{tools: copied}
}

// Get retrieves a tool's configuration by adapter name.
func (r *ToolRegistry) Get(name string) (*ToolConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return cfg, nil
}

// GetAll returns a copy of every configured adapter.
func (r *ToolRegistry) GetAll() map[string]*ToolConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ToolConfig, len(r.tools))
	for k, v := range r.tools {
		result[k] = v
	}
	return result
}

// Has reports whether name is configured.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of configured adapters.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Enabled reports whether name's adapter has what it needs to be wired up.
// Adapters with no required credential are always enabled (presence in the
// registry is enough); pubmed specifically requires ContactEmail; optional
// adapters (core, semanticscholar, websearch, documents) are enabled only
// when their credential fields are non-empty — absence disables the
// adapter rather than failing config load (§4.3).
func (r *ToolRegistry) Enabled(name string) bool {
	cfg, err := r.Get(name)
	if err != nil {
		return false
	}
	switch name {
	case "pubmed":
		return cfg.ContactEmail != ""
	case "core", "semanticscholar":
		return cfg.APIKey != ""
	case "websearch":
		return cfg.SerpAPIKeyEnv != "" || cfg.ExaAPIKeyEnv != ""
	case "documents":
		return true // works unauthenticated against public repos; token only raises rate limits
	default:
		return true
	}
}
