// Package agent implements the Agent Core (C6) and the seven specialized
// agents (C7) built on top of it: one shared pre_hook/run/validate/post_hook
// lifecycle wrapping a per-agent Controller, differentiated by tool set,
// system prompt, and grounding rule.
package agent

import (
	"context"

	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// ModelConfig is one agent's LLM binding. Temperature is never a field here:
// every call this package makes pins it to 0 at the llm.Request level
// (§4.6's determinism contract), so there is nothing for a caller to get wrong.
type ModelConfig struct {
	Model     string
	MaxTokens int
}

// Input is what the Planner/Executor hands an agent for one turn.
type Input struct {
	ProjectID string
	SessionID string
	Action    string
	Query     string
	Params    map[string]any
}

// RunOutput is a Controller's unvalidated result for one turn. Core applies
// grounding to it before it is ever delivered.
type RunOutput struct {
	Text         string
	ToolCallsLog []models.ToolInvocation
	// Verified is the agent's Vᴀ set for this turn: identifiers the agent is
	// permitted to cite, keyed by bare identifier string regardless of kind.
	Verified map[string]bool
	// Artifacts are recognized-action outputs the executor should fold into
	// conversation context (§4.10), e.g. "validated_articles" or "picot_draft".
	Artifacts map[string]any
	// IsRefusal marks Text as an explicit refusal rather than a deliverable
	// answer, for the zero-citations branch of Ground.
	IsRefusal bool
}

// Controller is the per-agent behavior: build the prompt, run whatever tool
// loop this agent needs (if any), and produce an unvalidated RunOutput.
// Grounding, hooks, and audit logging are Core's job, shared by every agent.
type Controller interface {
	Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error)
}

// GroundingFunc computes the verdict for one agent's RunOutput. cc gives the
// handful of agents whose Vᴀ depends on conversation artifacts (PICOT's
// validated_articles, Timeline's milestone table reads) access to that
// state; most agents ignore it and check out.Verified instead. Each
// specialized agent supplies its own rule, per §4.7's seven distinct
// contracts.
type GroundingFunc func(out *RunOutput, cc *convo.Context) models.Verdict
