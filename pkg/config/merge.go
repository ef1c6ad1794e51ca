package config

// mergeAgents merges built-in and user-defined agent configurations.
// User-defined agents override built-in agents with the same key.
func mergeAgents(builtin map[string]AgentConfig, user map[string]AgentConfig) map[string]*AgentConfig {
	result := make(map[string]*AgentConfig, len(builtin))
	for key, cfg := range builtin {
		c := cfg
		result[key] = &c
	}
	for key, cfg := range user {
		c := cfg
		result[key] = &c
	}
	return result
}

// mergeTools merges built-in and user-defined tool adapter configurations.
// User-defined tools override built-in tools with the same adapter name.
func mergeTools(builtin map[string]ToolConfig, user map[string]ToolConfig) map[string]*ToolConfig {
	result := make(map[string]*ToolConfig, len(builtin))
	for name, cfg := range builtin {
		c := cfg
		result[name] = &c
	}
	for name, cfg := range user {
		c := cfg
		result[name] = &c
	}
	return result
}

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtin map[string]LLMProviderConfig, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig, len(builtin))
	for name, cfg := range builtin {
		c := cfg
		result[name] = &c
	}
	for name, cfg := range user {
		c := cfg
		result[name] = &c
	}
	return result
}
