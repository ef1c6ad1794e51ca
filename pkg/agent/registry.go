package agent

// Registry holds every configured specialized agent keyed by agent_key, for
// the Planner (C8) and Executor (C9) to look up by name.
type Registry struct {
	agents map[string]*Core
}

// NewRegistry builds a Registry from a set of Cores.
func NewRegistry(cores ...*Core) *Registry {
	r := &Registry{agents: make(map[string]*Core, len(cores))}
	for _, c := range cores {
		r.agents[c.AgentKey] = c
	}
	return r
}

// Get returns the agent registered under key, or false if none is configured.
func (r *Registry) Get(key string) (*Core, bool) {
	c, ok := r.agents[key]
	return c, ok
}

// Keys returns every registered agent key.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.agents))
	for k := range r.agents {
		keys = append(keys, k)
	}
	return keys
}
