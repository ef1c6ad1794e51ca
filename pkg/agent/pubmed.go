package agent

import (
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
)

// PubMedAgentKey is the registry key for the PubMed Agent (C7.2).
const PubMedAgentKey = "pubmed_search"

const pubmedSystemPrompt = `You search PubMed for primary literature relevant to the
nurse researcher's question and summarize what you find. Only cite a PMID that appears
in a search_articles tool result from this turn. If PubMed returns nothing relevant, say
so plainly instead of inventing a citation.`

var pubmedToolDefs = []ToolDef{{
	AdapterName: "pubmed",
	Method:      "search",
	Description: "Search PubMed for articles matching a query",
	Parameters: map[string]any{
		"query": map[string]any{"type": "string", "description": "PubMed search query"},
		"max_results": map[string]any{"type": "integer", "description": "maximum results to return"},
	},
}}

// NewPubMedAgent builds the PubMed Agent. Its Vᴀ is exactly the PMIDs
// returned by its own pubmed__search tool calls this turn (§4.7 C7.2); there
// is no alternate entry point into this agent that bypasses Core.Invoke, so
// every run goes through the grounding wrapper.
func NewPubMedAgent(client llm.Client, registry *tools.Registry, auditLog *audit.Logger) *Core {
	controller := &ToolLoopController{
		SystemPrompt: pubmedSystemPrompt,
		Tools:        pubmedToolDefs,
		LLM:          client,
		Registry:     registry,
	}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		cited := ExtractCitations(out.Text)
		return Ground(cited, out.Verified, out.IsRefusal)
	}
	return New(PubMedAgentKey, "PubMed Agent", ModelConfig{Model: client.Model(), MaxTokens: 4096}, controller, grounding, auditLog)
}
