package agent

import (
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// PICOTAgentKey is the registry key for the PICOT/Writing Agent (C7.1).
const PICOTAgentKey = "picot_writing"

const picotSystemPrompt = `You help a nurse researcher draft and refine a PICOT-format
clinical question (Population, Intervention, Comparison, Outcome, Timeframe) and the
surrounding sections of a QI or research proposal. You have no search tool: never cite a
PMID, DOI, or ArXiv id unless it already appears in this conversation's validated article
list. If none has been validated yet, write the PICOT question and proposal text without
citations and say so.`

// NewPICOTAgent builds the PICOT/Writing Agent. It has no external tools
// (§4.7 C7.1): its Vᴀ is exactly the identifier set already present in
// context.artifacts["validated_articles"], so any citation it produces
// beyond that set is a hallucination by construction.
func NewPICOTAgent(client llm.Client, auditLog *audit.Logger) *Core {
	controller := &ToolLoopController{SystemPrompt: picotSystemPrompt, LLM: client}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		cited := ExtractCitations(out.Text)
		verified := validatedArticleIdentifiers(cc)
		return Ground(cited, verified, out.IsRefusal)
	}
	return New(PICOTAgentKey, "PICOT / Writing Agent", ModelConfig{Model: client.Model(), MaxTokens: 4096}, controller, grounding, auditLog)
}

// validatedArticleIdentifiers reads the "validated_articles" artifact (a
// []models.Finding left by the Citation Validation Agent) into a plain
// identifier set usable by Ground.
func validatedArticleIdentifiers(cc *convo.Context) map[string]bool {
	out := make(map[string]bool)
	if cc == nil {
		return out
	}
	v, ok := cc.GetArtifact("validated_articles")
	if !ok {
		return out
	}
	findings, ok := v.([]models.Finding)
	if !ok {
		return out
	}
	for _, f := range findings {
		out[f.Identifier] = true
	}
	return out
}
