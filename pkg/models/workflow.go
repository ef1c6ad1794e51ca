package models

import "time"

// RunStatus is the lifecycle state of a WorkflowRun.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// StepStatus is the lifecycle state of a single WorkflowStep.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped_due_to_dependency"
)

// WorkflowRun is the persisted execution record of one Plan walked by the Executor (C9).
type WorkflowRun struct {
	ID             string
	ProjectID      string
	WorkflowName   string
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	TotalSteps     int
	StepsCompleted int
	Error          string
}

// WorkflowStep is the persisted execution record of a single AgentTask within a run.
type WorkflowStep struct {
	RunID         string
	Index         int
	AgentKey      string
	Status        StepStatus
	StartedAt     time.Time
	FinishedAt    *time.Time
	Duration      time.Duration
	InputSummary  string
	OutputSummary string
	ErrorContext  string
}

// WorkflowOutput is a persisted artifact produced by a step, keyed by task id
// and field path so later tasks' `<task_id.field>` references can be resolved
// even after a process restart.
type WorkflowOutput struct {
	RunID  string
	TaskID string
	Output map[string]any
}
