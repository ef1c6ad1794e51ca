// Package synth implements the Response Synthesizer & Suggestion Engine
// (C12): turning an executor run's results dict into a first-person reply
// with no internal agent names or raw JSON, plus a short list of
// phase-appropriate next steps.
package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
)

const synthesizerSystemPrompt = `You are replying to a nurse researcher in first person,
summarizing what was just found or produced for them. Never mention internal agent
names, tool names, task ids, or raw JSON — describe the research content itself in
plain language. Be concise and concrete.`

// Synthesize turns results (task id -> output map, as produced by the
// Executor) into a reply. On an LLM failure it falls back to a
// deterministic bullet list of the recognized fields rather than
// returning an error, since a degraded reply beats none (§4.12).
func Synthesize(ctx context.Context, client llm.Client, utterance string, results map[string]map[string]any) string {
	reply, err := synthesizeWithLLM(ctx, client, utterance, results)
	if err != nil {
		return fallbackReply(results)
	}
	return reply
}

func synthesizeWithLLM(ctx context.Context, client llm.Client, utterance string, results map[string]map[string]any) (string, error) {
	if client == nil {
		return "", fmt.Errorf("synth: no llm client configured")
	}
	resp, err := client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: synthesizerSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("The user asked: %q\n\nResults to summarize: %s", utterance, describeResults(results))},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("synth: llm complete: %w", err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("synth: empty llm response")
	}
	return text, nil
}

// describeResults renders the results dict as plain text for the prompt,
// in stable task-id order so repeated calls with the same results produce
// the same prompt.
func describeResults(results map[string]map[string]any) string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		output, _ := results[id]["output"].(map[string]any)
		text, _ := output["text"].(string)
		fmt.Fprintf(&b, "- %s\n", text)
	}
	return b.String()
}

// fallbackReply is the deterministic degraded path: a bullet per
// recognized result field, used when the LLM call fails.
func fallbackReply(results map[string]map[string]any) string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return "I wasn't able to produce a summary for this turn."
	}

	var b strings.Builder
	b.WriteString("Here's what this turn produced:\n")
	for _, id := range ids {
		output, _ := results[id]["output"].(map[string]any)
		text, _ := output["text"].(string)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", truncate(text, 240))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// suggestionTable is the static phase-keyed table named in §4.12: 3-5
// phase-appropriate next steps per current conversation phase.
var suggestionTable = map[convo.Phase][]string{
	convo.PhasePlanning: {
		"Draft a PICOT question to anchor the search",
		"Tell me your research topic and I'll suggest a workflow",
		"Ask me to search the literature on a topic you're considering",
	},
	convo.PhaseSearching: {
		"Ask me to validate the findings against evidence quality",
		"Broaden the search to additional sources if results look thin",
		"Review the distinct findings gathered so far",
	},
	convo.PhaseAnalyzing: {
		"Ask for a synthesis of the validated evidence",
		"Scope a data-analysis plan for your proposed study",
		"Review which findings were retracted or low-quality",
	},
	convo.PhaseWriting: {
		"Ask me to check your project timeline and milestones",
		"Request a revision of the synthesis with a narrower focus",
		"Export or save this draft before moving to the next phase",
	},
}

// Suggestions returns 3-5 phase-appropriate next steps for phase.
func Suggestions(phase convo.Phase) []string {
	s, ok := suggestionTable[phase]
	if !ok {
		return suggestionTable[convo.PhasePlanning]
	}
	return s
}
