package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) Model() string { return "fake" }
func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, FinishReason: "stop"}, nil
}

func newCC(t *testing.T) *convo.Context {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return convo.New("p1", "s1", s)
}

func TestPlan_ExplicitPhraseSelectsTemplate(t *testing.T) {
	p := New(&fakeLLM{}, nil)
	plan, err := p.Plan(context.Background(), "I want a validated research workflow for this question", newCC(t))
	require.NoError(t, err)
	assert.Equal(t, "validated_research", plan.WorkflowName)
	assert.NotEmpty(t, plan.Tasks)
}

func TestPlan_ImplicitKeywordsSelectTemplate(t *testing.T) {
	p := New(&fakeLLM{}, nil)
	plan, err := p.Plan(context.Background(), "what's my IRB deadline and project timeline look like", newCC(t))
	require.NoError(t, err)
	assert.Equal(t, "timeline_planner", plan.WorkflowName)
}

func TestPlan_FallsBackToLLMDecomposition(t *testing.T) {
	p := New(&fakeLLM{content: `{"tasks":[{"task_id":"t1","agent_key":"pubmed_search","action":"search_pubmed"}]}`}, nil)
	plan, err := p.Plan(context.Background(), "help me understand fall prevention trends", newCC(t))
	require.NoError(t, err)
	assert.Empty(t, plan.WorkflowName)
	assert.Len(t, plan.Tasks, 1)
}

func TestPlan_EmptyTaskListReturnsErrCannotUnderstand(t *testing.T) {
	p := New(&fakeLLM{content: `{"tasks":[]}`}, nil)
	_, err := p.Plan(context.Background(), "xyzzy plugh", newCC(t))
	assert.ErrorIs(t, err, ErrCannotUnderstand)
}

func TestPlan_UnparseableLLMResponseReturnsErrCannotUnderstand(t *testing.T) {
	p := New(&fakeLLM{content: "not json"}, nil)
	_, err := p.Plan(context.Background(), "xyzzy plugh", newCC(t))
	assert.ErrorIs(t, err, ErrCannotUnderstand)
}

func TestResolveTieBreak_PrefersAlreadyChosenAgent(t *testing.T) {
	cc := newCC(t)
	cc.MarkCompleted(agent.PubMedAgentKey, "search_pubmed")

	task := &models.AgentTask{AgentKey: agent.NursingAgentKey, Action: "search_pubmed"}
	resolveTieBreak(task, cc)

	assert.Equal(t, agent.PubMedAgentKey, task.AgentKey)
}
