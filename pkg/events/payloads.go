package events

// RunStatusPayload is the payload for run.status events.
type RunStatusPayload struct {
	Type      string `json:"type"` // always EventTypeRunStatus
	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id"`
	Status    string `json:"status"` // models.RunStatus value
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// StepStatusPayload is the payload for step.status events.
type StepStatusPayload struct {
	Type      string `json:"type"` // always EventTypeStepStatus
	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id"`
	TaskID    string `json:"task_id"`
	AgentKey  string `json:"agent_key"`
	Status    string `json:"status"` // models.StepStatus value
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// AgentTurnPayload is the payload for agent.turn events.
type AgentTurnPayload struct {
	Type      string `json:"type"` // always EventTypeAgentTurn
	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id"`
	TaskID    string `json:"task_id"`
	AgentKey  string `json:"agent_key"`
	IsRefusal bool   `json:"is_refusal"`
	Verdict   string `json:"verdict,omitempty"` // models.Verdict.Kind, when present
	Timestamp string `json:"timestamp"`
}
