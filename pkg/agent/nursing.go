package agent

import (
	"context"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
)

// NursingAgentKey is the registry key for the Nursing Multi-Source Agent (C7.4).
const NursingAgentKey = "nursing_multi_source"

const nursingSystemPrompt = `You search across PubMed (primary), ClinicalTrials.gov,
medRxiv, Semantic Scholar, CORE, DOAJ, OpenFDA, and web search (when available) for
nursing-practice and QI-relevant evidence. Only cite an identifier returned by one of
these tools this turn. If every source you try comes back empty or unavailable, do not
guess — say plainly that no evidence is available from the sources you have access to.`

var nursingToolDefs = []ToolDef{
	{AdapterName: "pubmed", Method: "search", Description: "Search PubMed", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "clinicaltrials", Method: "search", Description: "Search ClinicalTrials.gov", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "medrxiv", Method: "search", Description: "Search medRxiv preprints", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "semanticscholar", Method: "search", Description: "Search Semantic Scholar", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "core", Method: "search", Description: "Search CORE open-access aggregator", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "doaj", Method: "search", Description: "Search DOAJ open-access journals", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "openfda", Method: "search", Description: "Search OpenFDA safety data", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
	{AdapterName: "websearch", Method: "search", Description: "General web search, optional", Parameters: map[string]any{"query": map[string]any{"type": "string"}}},
}

// nursingController wraps the generic tool loop with §4.7 C7.4's specific
// refusal rule: if PubMed is unavailable and no secondary source produced a
// finding, the agent must refuse rather than answer from its own knowledge.
type nursingController struct {
	inner Controller
}

func (n *nursingController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	out, err := n.inner.Run(ctx, in, cc)
	if err != nil {
		return nil, err
	}

	pubmedUsable := false
	anyFindings := len(out.Verified) > 0
	for _, inv := range out.ToolCallsLog {
		if inv.ToolName == "pubmed" && inv.Err == nil {
			pubmedUsable = true
		}
	}

	if !pubmedUsable && !anyFindings {
		out.Text = "No evidence is available from the sources I have access to for this question right now."
		out.IsRefusal = true
	}
	return out, nil
}

// NewNursingAgent builds the Nursing Multi-Source Agent. Vᴀ is the union of
// identifiers across every source it queried this turn.
func NewNursingAgent(client llm.Client, registry *tools.Registry, auditLog *audit.Logger) *Core {
	controller := &nursingController{inner: &ToolLoopController{
		SystemPrompt: nursingSystemPrompt,
		Tools:        nursingToolDefs,
		LLM:          client,
		Registry:     registry,
	}}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		cited := ExtractCitations(out.Text)
		return Ground(cited, out.Verified, out.IsRefusal)
	}
	return New(NursingAgentKey, "Nursing Multi-Source Agent", ModelConfig{Model: client.Model(), MaxTokens: 4096}, controller, grounding, auditLog)
}
