package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// clinicalDisclaimer is appended to every delivered (non-refused) response,
// since every agent in this system advises on research methodology, not
// clinical practice.
const clinicalDisclaimer = "\n\n---\nThis is research-methodology guidance, not clinical advice. Verify against your institution's IRB and practice standards before acting on it."

// refusalText replaces a hallucinated run's output so nothing unverified
// ever reaches the conversation.
const refusalText = "I can't confirm this claim against verified sources right now, so I'm not going to present it as fact. Try narrowing the question or re-running the search."

// Core is the Agent Core (C6): the lifecycle every specialized agent shares
// (pre_hook, run, validate, post_hook) wrapped around a per-agent Controller.
type Core struct {
	AgentKey    string
	DisplayName string
	Model       ModelConfig
	Controller  Controller
	Grounding   GroundingFunc
	Audit       *audit.Logger
}

// New builds a Core. Panics on a nil Controller or Grounding func, matching
// the teacher's fail-fast constructor convention for required collaborators.
func New(agentKey, displayName string, model ModelConfig, controller Controller, grounding GroundingFunc, auditLog *audit.Logger) *Core {
	if controller == nil {
		panic(fmt.Sprintf("agent %s: controller is required", agentKey))
	}
	if grounding == nil {
		panic(fmt.Sprintf("agent %s: grounding func is required", agentKey))
	}
	return &Core{AgentKey: agentKey, DisplayName: displayName, Model: model, Controller: controller, Grounding: grounding, Audit: auditLog}
}

// Invoke runs one full agent turn: RECEIVED -> PLANNING_TOOLS -> ... -> DRAFT
// -> VALIDATE -> (GROUNDED|HALLUCINATED|ERROR) -> DELIVER|FAIL_STEP (§4.6).
func (c *Core) Invoke(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, models.Verdict, error) {
	c.logEntry(in.SessionID, audit.ActionQueryReceived, map[string]any{"action": in.Action, "query": in.Query})

	out, err := c.Controller.Run(ctx, in, cc)
	if err != nil {
		c.logEntry(in.SessionID, audit.ActionError, map[string]any{"action": in.Action, "error": err.Error()})
		return nil, models.Verdict{}, fmt.Errorf("agent %s: %w", c.AgentKey, err)
	}

	for _, inv := range out.ToolCallsLog {
		c.logEntry(in.SessionID, audit.ActionToolCalled, map[string]any{"tool": inv.ToolName, "method": inv.Method, "params": inv.Params})
		c.logEntry(in.SessionID, audit.ActionToolResult, map[string]any{"tool": inv.ToolName, "cache_hit": inv.CacheHit, "duration_ms": inv.Duration.Milliseconds(), "error": errString(inv.Err)})
	}

	verdict := c.Grounding(out, cc)
	c.logEntry(in.SessionID, audit.ActionGroundingCheck, map[string]any{"verdict": string(verdict.Kind), "unverified": verdict.Unverified})

	if verdict.Kind == models.VerdictHallucinate {
		out.Text = refusalText
		out.Artifacts = nil
	} else if verdict.Kind == models.VerdictGrounded {
		out.Text += clinicalDisclaimer
	}

	for role, val := range out.Artifacts {
		cc.AddArtifact(role, val)
	}

	c.logEntry(in.SessionID, audit.ActionResponseGenerated, map[string]any{"action": in.Action, "validation_passed": verdict.Kind != models.VerdictHallucinate})

	return out, verdict, nil
}

func (c *Core) logEntry(sessionID string, action audit.ActionType, payload map[string]any) {
	if c.Audit == nil {
		return
	}
	_ = c.Audit.Log(audit.Entry{Timestamp: time.Now().UTC(), AgentKey: c.AgentKey, SessionID: sessionID, ActionType: action, Payload: payload})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
