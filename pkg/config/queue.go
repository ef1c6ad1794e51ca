package config

import "time"

// QueueConfig tunes the Executor's (C9) concurrency and deadlines (§5).
type QueueConfig struct {
	// ParallelCap bounds concurrent tasks within one parallel_group.
	ParallelCap int `yaml:"parallel_cap"`

	// ToolCallDeadline is the hard per-tool-call deadline enforced by the
	// adapter. Expiry classifies as a transient failure eligible for retry.
	ToolCallDeadline time.Duration `yaml:"tool_call_deadline"`

	// AgentTurnDeadline is the soft per-agent-turn deadline enforced by the
	// executor.
	AgentTurnDeadline time.Duration `yaml:"agent_turn_deadline"`

	// RunDeadline is the overall ceiling for one workflow run; exceeding it
	// triggers cooperative cancellation.
	RunDeadline time.Duration `yaml:"run_deadline"`
}

// DefaultQueueConfig returns the built-in queue/executor defaults (§5).
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		ParallelCap:       3,
		ToolCallDeadline:  30 * time.Second,
		AgentTurnDeadline: 180 * time.Second,
		RunDeadline:       15 * time.Minute,
	}
}
