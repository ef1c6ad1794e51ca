package api

import "time"

// ProjectResponse is one project entry returned by the project admin calls (§6).
type ProjectResponse struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListProjectsResponse is returned by GET /api/v1/projects (list_projects, §6).
type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// UtteranceResponse is the reply shape named in §6:
// {reply_text, suggestions[], run_id?}.
type UtteranceResponse struct {
	ReplyText   string   `json:"reply_text"`
	Suggestions []string `json:"suggestions"`
	RunID       string   `json:"run_id,omitempty"`
}

// RunResponse is returned by GET /api/v1/projects/:project/runs/:run_id.
type RunResponse struct {
	RunID          string         `json:"run_id"`
	ProjectID      string         `json:"project_id"`
	WorkflowName   string         `json:"workflow_name,omitempty"`
	Status         string         `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	TotalSteps     int            `json:"total_steps"`
	StepsCompleted int            `json:"steps_completed"`
	Error          string         `json:"error,omitempty"`
	Steps          []StepResponse `json:"steps"`
}

// StepResponse is one workflow_steps row nested under RunResponse.
type StepResponse struct {
	Index         int        `json:"index"`
	AgentKey      string     `json:"agent_key"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	OutputSummary string     `json:"output_summary,omitempty"`
	ErrorContext  string     `json:"error_context,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Agents       int    `json:"agents"`
	Tools        int    `json:"tools"`
	LLMProviders int    `json:"llm_providers"`
	Projects     int    `json:"projects"`
}
