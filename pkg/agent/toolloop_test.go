package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/tools"
)

// fakeLLM replays a scripted sequence of responses, one per Complete call.
type fakeLLM struct {
	responses []*llm.Response
	calls     int
}

func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if req.Temperature != 0 {
		panic("temperature must be 0")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeAdapter struct {
	name     string
	findings []models.Finding
}

func (a *fakeAdapter) Name() string      { return a.name }
func (a *fakeAdapter) Methods() []string { return []string{"search"} }
func (a *fakeAdapter) Invoke(ctx context.Context, req tools.Request) (tools.Result, error) {
	return tools.Result{Findings: a.findings}, nil
}

func TestToolLoopController_CallsToolThenReturnsFinalAnswer(t *testing.T) {
	args, _ := json.Marshal(map[string]any{"query": "fall prevention"})
	fake := &fakeLLM{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "pubmed__search", Arguments: string(args)}}, FinishReason: "tool_calls"},
		{Content: "PMID: 30191554 supports this.", FinishReason: "stop"},
	}}
	registry := tools.NewRegistry(&fakeAdapter{name: "pubmed", findings: []models.Finding{
		{IdentifierKind: models.IdentifierPMID, Identifier: "30191554", Title: "A fall prevention RCT"},
	}})

	controller := &ToolLoopController{SystemPrompt: "sys", Tools: pubmedToolDefs, LLM: fake, Registry: registry}
	out, err := controller.Run(context.Background(), Input{Query: "q"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "PMID: 30191554 supports this.", out.Text)
	assert.True(t, out.Verified["30191554"])
	assert.Len(t, out.ToolCallsLog, 1)
	assert.Equal(t, 2, fake.calls)
}

func TestToolLoopController_NoToolsReturnsImmediateAnswer(t *testing.T) {
	fake := &fakeLLM{responses: []*llm.Response{{Content: "plain answer", FinishReason: "stop"}}}
	controller := &ToolLoopController{SystemPrompt: "sys", LLM: fake}

	out, err := controller.Run(context.Background(), Input{Query: "q"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "plain answer", out.Text)
	assert.Empty(t, out.ToolCallsLog)
}

func TestToolLoopController_UnknownAdapterRecordsErrorAndContinues(t *testing.T) {
	fake := &fakeLLM{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "ghost__search", Arguments: "{}"}}, FinishReason: "tool_calls"},
		{Content: "fallback answer", FinishReason: "stop"},
	}}
	controller := &ToolLoopController{SystemPrompt: "sys", Tools: pubmedToolDefs, LLM: fake, Registry: tools.NewRegistry()}

	out, err := controller.Run(context.Background(), Input{Query: "q"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "fallback answer", out.Text)
	assert.Len(t, out.ToolCallsLog, 1)
	assert.Error(t, out.ToolCallsLog[0].Err)
}
