package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the concrete LLM provider binding behind Client.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient builds a Client backed by Anthropic's Messages API.
// baseURL overrides the default endpoint when set (used in tests against a
// local stub server).
func NewAnthropicClient(apiKey, model, baseURL string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic client: API key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-5-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}, nil
}

func (c *AnthropicClient) Model() string { return c.model }

// Complete issues one Messages.New call. temperature is pinned to 0 on the
// wire regardless of req.Temperature's value — callers that pass anything
// else get a loud error instead of a silently-overridden determinism
// contract (§4.6).
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Temperature != 0 {
		return nil, fmt.Errorf("anthropic client: temperature must be 0, got %v", req.Temperature)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	systemContent, messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(0),
	}
	if len(systemContent) > 0 {
		params.System = systemContent
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic complete: %w", err)
	}

	slog.DebugContext(ctx, "llm call completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	result := &Response{
		FinishReason: mapStopReason(resp.StopReason),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID: block.ID, Name: block.Name, Arguments: string(block.Input),
			})
		}
	}
	return result, nil
}

// convertMessages extracts system content and converts messages to
// Anthropic's shape, which requires system text separately from the
// message array.
func convertMessages(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var systemContent []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			systemContent = append(systemContent, anthropic.TextBlockParam{Type: "text", Text: msg.Content})

		case "user":
			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
			})

		case "assistant":
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				content = append(content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: []byte(tc.Arguments)},
				})
			}
			messages = append(messages, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: content})

		case "tool":
			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)},
			})
		}
	}
	return systemContent, messages
}

func convertTools(tools []Tool) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: "object"}
		if t.Parameters != nil {
			schema.Properties = t.Parameters
		}
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{Name: t.Name, Description: anthropic.String(t.Description), InputSchema: schema},
		}
	}
	return result
}

func mapStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return "stop"
	case anthropic.StopReasonToolUse:
		return "tool_calls"
	case anthropic.StopReasonMaxTokens:
		return "length"
	case anthropic.StopReasonStopSequence:
		return "stop"
	default:
		return string(reason)
	}
}
