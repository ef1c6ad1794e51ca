package config

import "fmt"

// Validator validates loaded configuration comprehensively, failing fast at
// the first error so a misconfigured install never starts.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates in dependency order: LLM providers before agents
// (an agent references a provider by name), then tools, then queue/storage.
func (v *Validator) ValidateAll() error {
	if err := v.validateLLMProviders(); err != nil {
		return err
	}
	if err := v.validateAgents(); err != nil {
		return err
	}
	if err := v.validateTools(); err != nil {
		return err
	}
	if err := v.validateQueue(); err != nil {
		return err
	}
	return v.validateStorage()
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if p.Model == "" {
			return NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
		}
		if p.APIKeyEnv == "" {
			return NewValidationError("llm_provider", name, "api_key_env", ErrMissingRequiredField)
		}
		if p.MaxTokens <= 0 {
			return NewValidationError("llm_provider", name, "max_tokens", ErrInvalidValue)
		}
	}
	return nil
}

func (v *Validator) validateAgents() error {
	for key, a := range v.cfg.AgentRegistry.GetAll() {
		if a.Provider == "" {
			return NewValidationError("agent", key, "provider", ErrMissingRequiredField)
		}
		if !v.cfg.LLMProviderRegistry.Has(a.Provider) {
			return NewValidationError("agent", key, "provider", fmt.Errorf("%w: %s", ErrLLMProviderNotFound, a.Provider))
		}
		if a.MaxTokens <= 0 {
			return NewValidationError("agent", key, "max_tokens", ErrInvalidValue)
		}
		for _, tool := range a.Tools {
			if !v.cfg.ToolRegistry.Has(tool) {
				return NewValidationError("agent", key, "tools", fmt.Errorf("%w: %s", ErrToolNotFound, tool))
			}
		}
	}
	return nil
}

func (v *Validator) validateTools() error {
	if !v.cfg.ToolRegistry.Has("pubmed") {
		return NewValidationError("tool", "pubmed", "", ErrMissingRequiredField)
	}
	pubmed, err := v.cfg.ToolRegistry.Get("pubmed")
	if err != nil {
		return err
	}
	if pubmed.ContactEmail == "" {
		return NewValidationError("tool", "pubmed", "contact_email", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q.ParallelCap < 1 {
		return NewValidationError("queue", "parallel_cap", "", ErrInvalidValue)
	}
	if q.ToolCallDeadline <= 0 {
		return NewValidationError("queue", "tool_call_deadline", "", ErrInvalidValue)
	}
	if q.AgentTurnDeadline <= 0 {
		return NewValidationError("queue", "agent_turn_deadline", "", ErrInvalidValue)
	}
	if q.RunDeadline <= 0 {
		return NewValidationError("queue", "run_deadline", "", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateStorage() error {
	s := v.cfg.Storage
	if s.AuditLogRoot == "" {
		return NewValidationError("storage", "audit_log_root", "", ErrMissingRequiredField)
	}
	if s.ProjectDataRoot == "" {
		return NewValidationError("storage", "project_data_root", "", ErrMissingRequiredField)
	}
	if s.HTTPCachePath == "" {
		return NewValidationError("storage", "http_cache_path", "", ErrMissingRequiredField)
	}
	return nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}
