// Package planner implements the Planner (C8): turning a user utterance
// into either a named workflow template or an LLM-decomposed ordered list
// of Agent Tasks, per §4.8.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// maxTasks is the task-count ceiling named in §4.8's LLM decomposition prompt.
const maxTasks = 8

// ErrCannotUnderstand is returned when the planner can't produce a usable
// plan from an utterance — zero tasks or an unparseable LLM response. The
// caller must short-circuit with a structured "I don't understand" response
// rather than silently falling back to a single random agent (§4.8).
var ErrCannotUnderstand = fmt.Errorf("planner: could not produce a plan from this utterance")

// AgentCapability is one line of the registry the planner's LLM prompt is
// built from: an agent's key, one-line capability, and permitted actions.
type AgentCapability struct {
	AgentKey   string
	Capability string
	Actions    []string
}

// explicitTriggers maps a trigger substring (checked case-insensitively)
// directly to a named workflow template.
var explicitTriggers = map[string]string{
	"validated research":     "validated_research",
	"run the full workflow":  "validated_research",
	"parallel search":        "parallel_search",
	"search everywhere":      "parallel_search",
	"update my timeline":     "timeline_planner",
	"project timeline":       "timeline_planner",
	"quick search":           "basic_research",
}

// implicitKeywordBags score an utterance against each workflow template
// when no explicit phrase matched; the bag with the most keyword hits wins.
var implicitKeywordBags = map[string][]string{
	"validated_research": {"validate", "grade", "evidence level", "retraction", "quality", "rigorous"},
	"parallel_search":    {"pubmed", "arxiv", "clinicaltrials", "preprint", "every source", "all sources"},
	"timeline_planner":   {"milestone", "deadline", "irb", "timeline", "due date", "schedule"},
	"basic_research":     {"find", "search", "look up", "literature", "articles"},
}

// Templates holds the fixed task lists for each named workflow.
var Templates = map[string]func() []models.AgentTask{
	"validated_research": func() []models.AgentTask {
		return []models.AgentTask{
			{TaskID: "t1", AgentKey: agent.NursingAgentKey, Action: "search_pubmed", Params: map[string]any{}},
			{TaskID: "t2", AgentKey: agent.CitationAgentKey, Action: "validate", Params: map[string]any{"articles": "<t1.findings>"}, DependsOn: []string{"t1"}},
			{TaskID: "t3", AgentKey: agent.PICOTAgentKey, Action: "synthesize", Params: map[string]any{}, DependsOn: []string{"t2"}},
		}
	},
	"parallel_search": func() []models.AgentTask {
		return []models.AgentTask{
			{TaskID: "t1", AgentKey: agent.PubMedAgentKey, Action: "search_pubmed", ParallelGroup: "g1"},
			{TaskID: "t2", AgentKey: agent.ArXivAgentKey, Action: "search_arxiv", ParallelGroup: "g1"},
			{TaskID: "t3", AgentKey: agent.NursingAgentKey, Action: "search_pubmed", ParallelGroup: "g1"},
		}
	},
	"timeline_planner": func() []models.AgentTask {
		return []models.AgentTask{
			{TaskID: "t1", AgentKey: agent.TimelineAgentKey, Action: "plan_timeline"},
		}
	},
	"basic_research": func() []models.AgentTask {
		return []models.AgentTask{
			{TaskID: "t1", AgentKey: agent.PubMedAgentKey, Action: "search_pubmed"},
		}
	},
}

// Planner decomposes an utterance into a Plan.
type Planner struct {
	LLM      llm.Client
	Registry []AgentCapability
}

// New builds a Planner.
func New(client llm.Client, registry []AgentCapability) *Planner {
	return &Planner{LLM: client, Registry: registry}
}

// Plan produces an ordered task list for utterance, given the conversation
// context (used for the tie-break policy and for the summary handed to the
// LLM decomposition prompt).
func (p *Planner) Plan(ctx context.Context, utterance string, cc *convo.Context) (*models.Plan, error) {
	lower := strings.ToLower(utterance)

	if name := matchExplicit(lower); name != "" {
		return p.fromTemplate(name, cc), nil
	}
	if name := matchImplicit(lower); name != "" {
		return p.fromTemplate(name, cc), nil
	}
	return p.decompose(ctx, utterance, cc)
}

func (p *Planner) fromTemplate(name string, cc *convo.Context) *models.Plan {
	build, ok := Templates[name]
	if !ok {
		return &models.Plan{}
	}
	tasks := build()
	for i := range tasks {
		resolveTieBreak(&tasks[i], cc)
	}
	return &models.Plan{WorkflowName: name, Tasks: tasks}
}

func matchExplicit(lowerUtterance string) string {
	for phrase, workflow := range explicitTriggers {
		if strings.Contains(lowerUtterance, phrase) {
			return workflow
		}
	}
	return ""
}

func matchImplicit(lowerUtterance string) string {
	best, bestScore := "", 0
	for workflow, keywords := range implicitKeywordBags {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lowerUtterance, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = workflow, score
		}
	}
	return best
}

// resolveTieBreak applies §4.8's policy: when an action could be served by
// more than one agent (search_pubmed by both the PubMed and Nursing
// agents), prefer whichever has already been used this conversation for
// continuity, else prefer the narrower specialist (PubMed over the
// broader Nursing Multi-Source agent).
func resolveTieBreak(task *models.AgentTask, cc *convo.Context) {
	if task.Action != "search_pubmed" {
		return
	}
	if cc == nil {
		return
	}
	if task.AgentKey == agent.NursingAgentKey && cc.IsCompleted(agent.PubMedAgentKey, "search_pubmed") {
		task.AgentKey = agent.PubMedAgentKey
	}
}

const decompositionSystemPrompt = `You are the task planner for a nursing research
assistant. Decompose the user's request into an ordered list of agent tasks as a JSON
object: {"tasks": [{"task_id": "t1", "agent_key": "...", "action": "...", "params": {},
"depends_on": ["t1"], "parallel_group": ""}]}. Available agents and their actions:
%s

Dependency params may reference an earlier task's output with the syntax
"<task_id.field>". Never mention internal agent names, tool names, or implementation
details in any text meant for the end user — this plan is internal. Produce at most %d
tasks. If you cannot decompose the request into a research workflow, reply with
{"tasks": []}.`

func (p *Planner) decompose(ctx context.Context, utterance string, cc *convo.Context) (*models.Plan, error) {
	var registryLines strings.Builder
	for _, a := range p.Registry {
		fmt.Fprintf(&registryLines, "- %s: %s (actions: %s)\n", a.AgentKey, a.Capability, strings.Join(a.Actions, ", "))
	}
	system := fmt.Sprintf(decompositionSystemPrompt, registryLines.String(), maxTasks)

	summary := ""
	if cc != nil {
		summary = cc.GetSummary()
	}

	resp, err := p.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: fmt.Sprintf("Conversation so far: %s\n\nRequest: %s", summary, utterance)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("planner decomposition: %w", err)
	}

	var parsed struct {
		Tasks []models.AgentTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &parsed); err != nil {
		return nil, ErrCannotUnderstand
	}
	if len(parsed.Tasks) == 0 {
		return nil, ErrCannotUnderstand
	}
	if len(parsed.Tasks) > maxTasks {
		parsed.Tasks = parsed.Tasks[:maxTasks]
	}
	for i := range parsed.Tasks {
		resolveTieBreak(&parsed.Tasks[i], cc)
	}

	return &models.Plan{Tasks: parsed.Tasks}, nil
}
