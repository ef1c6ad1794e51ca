package agent

import (
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
)

// ArXivAgentKey is the registry key for the ArXiv Agent (C7.3).
const ArXivAgentKey = "arxiv_search"

const arxivSystemPrompt = `You search ArXiv for preprints relevant to the nurse
researcher's question — mainly useful for methodological or statistical preprints that
touch health services research. Only cite an ArXiv id that appears in a search tool
result from this turn.`

var arxivToolDefs = []ToolDef{{
	AdapterName: "arxiv",
	Method:      "search",
	Description: "Search ArXiv for preprints matching a query",
	Parameters: map[string]any{
		"query": map[string]any{"type": "string", "description": "ArXiv search query"},
	},
}}

// NewArXivAgent builds the ArXiv Agent. Vᴀ = ArXiv ids returned by its own
// tool calls this turn (§4.7 C7.3).
func NewArXivAgent(client llm.Client, registry *tools.Registry, auditLog *audit.Logger) *Core {
	controller := &ToolLoopController{
		SystemPrompt: arxivSystemPrompt,
		Tools:        arxivToolDefs,
		LLM:          client,
		Registry:     registry,
	}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		cited := ExtractCitations(out.Text)
		return Ground(cited, out.Verified, out.IsRefusal)
	}
	return New(ArXivAgentKey, "ArXiv Agent", ModelConfig{Model: client.Model(), MaxTokens: 4096}, controller, grounding, auditLog)
}
