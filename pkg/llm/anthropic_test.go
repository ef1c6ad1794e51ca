package llm

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicClient("", "", "")
	assert.Error(t, err)
}

func TestNewAnthropicClient_DefaultsModel(t *testing.T) {
	c, err := NewAnthropicClient("test-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250514", c.Model())
}

func TestAnthropicClient_Complete_RejectsNonZeroTemperature(t *testing.T) {
	c, err := NewAnthropicClient("test-key", "claude-x", "")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}, Temperature: 0.7})
	assert.Error(t, err)
}

func TestConvertMessages_SplitsSystemFromConversation(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi", ToolCalls: []ToolCall{{ID: "1", Name: "pubmed__search", Arguments: `{"query":"x"}`}}},
		{Role: "tool", ToolCallID: "1", ToolName: "pubmed__search", Content: "[]"},
	}

	system, converted := convertMessages(msgs)

	require.Len(t, system, 1)
	assert.Equal(t, "be terse", system[0].Text)
	assert.Len(t, converted, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, converted[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, converted[1].Role)
}

func TestConvertTools_BuildsInputSchema(t *testing.T) {
	tools := convertTools([]Tool{{Name: "pubmed__search", Description: "search", Parameters: map[string]any{"query": map[string]any{"type": "string"}}}})
	require.Len(t, tools, 1)
	assert.Equal(t, "pubmed__search", tools[0].OfTool.Name)
}

func TestMapStopReason(t *testing.T) {
	assert.Equal(t, "stop", mapStopReason(anthropic.StopReasonEndTurn))
	assert.Equal(t, "tool_calls", mapStopReason(anthropic.StopReasonToolUse))
	assert.Equal(t, "length", mapStopReason(anthropic.StopReasonMaxTokens))
}
