package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through cmd/'s wiring of every other package.
type Config struct {
	configDir string

	Defaults  *Defaults
	Queue     *QueueConfig
	Storage   *StorageConfig
	Retention *RetentionConfig

	// Breakers/Caches are per-endpoint overrides; endpoints absent here use
	// pkg/breaker's and pkg/httpcache's own defaults.
	Breakers map[string]BreakerConfig
	Caches   map[string]CacheConfig

	AgentRegistry       *AgentRegistry
	ToolRegistry        *ToolRegistry
	LLMProviderRegistry *LLMProviderRegistry
}

// Stats summarizes loaded configuration for startup logging.
type Stats struct {
	Agents       int
	Tools        int
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	return Stats{
		Agents:       c.AgentRegistry.Len(),
		Tools:        c.ToolRegistry.Len(),
		LLMProviders: c.LLMProviderRegistry.Len(),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string { return c.configDir }

// GetAgent retrieves an agent configuration by agent_key.
func (c *Config) GetAgent(key string) (*AgentConfig, error) {
	return c.AgentRegistry.Get(key)
}

// GetTool retrieves a tool adapter's configuration by name.
func (c *Config) GetTool(name string) (*ToolConfig, error) {
	return c.ToolRegistry.Get(name)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// BreakerFor returns the breaker tuning for endpoint, or the zero value
// (pkg/breaker applies its own defaults to a zero Config) if unconfigured.
func (c *Config) BreakerFor(endpoint string) BreakerConfig {
	return c.Breakers[endpoint]
}

// CacheTTLFor returns the configured cache TTL override for endpoint, and
// whether one was set.
func (c *Config) CacheTTLFor(endpoint string) (CacheConfig, bool) {
	cfg, ok := c.Caches[endpoint]
	return cfg, ok
}
