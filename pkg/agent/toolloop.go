package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
)

// defaultMaxToolIterations bounds the TOOL_CALL -> TOOL_RESULT loop so a
// model that keeps requesting tools can never hang a run indefinitely.
const defaultMaxToolIterations = 6

// ToolDef names one adapter method as a tool this agent's loop may call.
type ToolDef struct {
	AdapterName string
	Method      string
	Description string
	Parameters  map[string]any
}

// ToolLoopController is the shared LLM-with-tools loop: build messages from
// the system prompt and query, let the model request tool calls, execute
// them against the tool registry, and feed results back until the model
// stops or the iteration cap is hit. Every specialized agent with external
// tools (PubMed, ArXiv, Nursing Multi-Source, Citation Validation) wires its
// own system prompt, tool set, and identifier-collection behavior on top.
type ToolLoopController struct {
	SystemPrompt string
	Tools        []ToolDef
	LLM          llm.Client
	Registry     *tools.Registry
	MaxIterations int
}

func toolName(adapter, method string) string { return adapter + "__" + method }

func (c *ToolLoopController) llmTools() []llm.Tool {
	out := make([]llm.Tool, len(c.Tools))
	for i, t := range c.Tools {
		out[i] = llm.Tool{Name: toolName(t.AdapterName, t.Method), Description: t.Description, Parameters: t.Parameters}
	}
	return out
}

// Run executes the tool-calling loop. The returned RunOutput's Verified set
// is every identifier present in a Finding returned by any tool call made
// this turn, which is exactly Vᴀ for agents whose grounding rule is
// "identifiers found via my own tool calls" (§4.7 C7.2, C7.3, C7.4).
func (c *ToolLoopController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	maxIter := c.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxToolIterations
	}

	messages := []llm.Message{
		{Role: "system", Content: c.SystemPrompt},
		{Role: "user", Content: in.Query},
	}

	out := &RunOutput{Verified: make(map[string]bool)}
	toolDefs := c.llmTools()

	for iter := 0; iter < maxIter; iter++ {
		resp, err := c.LLM.Complete(ctx, llm.Request{Messages: messages, Tools: toolDefs, Temperature: 0})
		if err != nil {
			return nil, fmt.Errorf("llm complete: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			out.Text = resp.Content
			return out, nil
		}

		messages = append(messages, llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})

		for _, tc := range resp.ToolCalls {
			adapterName, method, ok := splitToolName(tc.Name)
			if !ok {
				messages = append(messages, llm.Message{Role: "tool", ToolCallID: tc.ID, ToolName: tc.Name, Content: "unknown tool"})
				continue
			}

			var params map[string]any
			if tc.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Arguments), &params); err != nil {
					messages = append(messages, llm.Message{Role: "tool", ToolCallID: tc.ID, ToolName: tc.Name, Content: "invalid arguments json"})
					continue
				}
			}

			inv := models.ToolInvocation{ToolName: adapterName, Method: method, Params: params, StartedAt: time.Now()}

			adapter, ok := c.Registry.Get(adapterName)
			if !ok {
				inv.Err = fmt.Errorf("no such adapter %q", adapterName)
				out.ToolCallsLog = append(out.ToolCallsLog, inv)
				messages = append(messages, llm.Message{Role: "tool", ToolCallID: tc.ID, ToolName: tc.Name, Content: "adapter unavailable"})
				continue
			}

			result, err := adapter.Invoke(ctx, tools.Request{Method: method, Params: params})
			inv.Duration = time.Since(inv.StartedAt)
			if err != nil {
				inv.Err = err
				out.ToolCallsLog = append(out.ToolCallsLog, inv)
				messages = append(messages, llm.Message{Role: "tool", ToolCallID: tc.ID, ToolName: tc.Name, Content: fmt.Sprintf("tool error: %v", err)})
				continue
			}

			inv.CacheHit = result.CacheHit
			inv.Result = result.Findings
			out.ToolCallsLog = append(out.ToolCallsLog, inv)
			for _, f := range result.Findings {
				out.Verified[f.Identifier] = true
			}

			summary, _ := json.Marshal(summarizeFindings(result.Findings))
			messages = append(messages, llm.Message{Role: "tool", ToolCallID: tc.ID, ToolName: tc.Name, Content: string(summary)})
		}
	}

	return nil, fmt.Errorf("tool loop: exceeded %d iterations without a final answer", maxIter)
}

func splitToolName(name string) (adapter, method string, ok bool) {
	idx := strings.LastIndex(name, "__")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+2:], true
}

// summarizeFindings trims a tool result down to the fields the model needs
// to write a grounded answer, keeping the tool-result message small.
func summarizeFindings(findings []models.Finding) []map[string]any {
	out := make([]map[string]any, len(findings))
	for i, f := range findings {
		out[i] = map[string]any{
			"identifier_kind": f.IdentifierKind,
			"identifier":      f.Identifier,
			"title":           f.Title,
			"date":            f.Date,
			"source":          f.JournalOrSource,
		}
	}
	return out
}
