package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ResearchYAMLConfig represents the complete research.yaml file structure.
type ResearchYAMLConfig struct {
	Defaults     *Defaults                    `yaml:"defaults"`
	Queue        *QueueConfig                 `yaml:"queue"`
	Storage      *StorageConfig               `yaml:"storage"`
	Retention    *RetentionConfig             `yaml:"retention"`
	Agents       map[string]AgentConfig       `yaml:"agents"`
	Tools        map[string]ToolConfig        `yaml:"tools"`
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
	Breakers     map[string]BreakerConfig     `yaml:"breakers"`
	Caches       map[string]CacheConfig       `yaml:"caches"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Load research.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined agents/tools/llm providers
//  5. Build in-memory registries
//  6. Apply default values (queue, storage)
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"agents", stats.Agents, "tools", stats.Tools, "llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadResearchYAML()
	if err != nil {
		return nil, NewLoadError("research.yaml", err)
	}

	builtin := GetBuiltinConfig()

	agents := mergeAgents(builtin.Agents, yamlCfg.Agents)
	tools := mergeTools(builtin.Tools, yamlCfg.Tools)
	providers := mergeLLMProviders(builtin.LLMProviders, yamlCfg.LLMProviders)

	defaults := yamlCfg.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.LLMProvider == "" {
		defaults.LLMProvider = "anthropic-default"
	}

	queue := DefaultQueueConfig()
	if yamlCfg.Queue != nil {
		if err := mergo.Merge(queue, yamlCfg.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	storage := DefaultStorageConfig()
	if yamlCfg.Storage != nil {
		if err := mergo.Merge(storage, yamlCfg.Storage, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge storage config: %w", err)
		}
	}

	retention := DefaultRetentionConfig()
	if yamlCfg.Retention != nil {
		if err := mergo.Merge(retention, yamlCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		Queue:               queue,
		Storage:             storage,
		Retention:           retention,
		Breakers:            yamlCfg.Breakers,
		Caches:              yamlCfg.Caches,
		AgentRegistry:       NewAgentRegistry(agents),
		ToolRegistry:        NewToolRegistry(tools),
		LLMProviderRegistry: NewLLMProviderRegistry(providers),
	}, nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func (l *configLoader) loadResearchYAML() (*ResearchYAMLConfig, error) {
	cfg := &ResearchYAMLConfig{
		Agents:       make(map[string]AgentConfig),
		Tools:        make(map[string]ToolConfig),
		LLMProviders: make(map[string]LLMProviderConfig),
		Breakers:     make(map[string]BreakerConfig),
		Caches:       make(map[string]CacheConfig),
	}
	if err := l.loadYAML("research.yaml", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
