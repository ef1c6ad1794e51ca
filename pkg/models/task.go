package models

import "time"

// AgentTask is one node of a Plan: a call into a specific agent with an action
// and a parameter bag that may reference earlier task outputs or context artifacts.
type AgentTask struct {
	TaskID        string         `json:"task_id"`
	AgentKey      string         `json:"agent_key"`
	Action        string         `json:"action"`
	Params        map[string]any `json:"params"`
	DependsOn     []string       `json:"depends_on,omitempty"`
	ParallelGroup string         `json:"parallel_group,omitempty"`
}

// Plan is an ordered list of Agent Tasks produced by the Planner (C8), either
// from a named workflow template or from LLM decomposition.
type Plan struct {
	WorkflowName string      `json:"workflow_name,omitempty"` // set when derived from a template
	Tasks        []AgentTask `json:"tasks"`
}

// ToolInvocation records a single call from an agent into a tool adapter.
type ToolInvocation struct {
	ToolName  string
	Method    string
	Params    map[string]any
	StartedAt time.Time
	Duration  time.Duration
	CacheHit  bool
	Result    any
	Err       error
}
