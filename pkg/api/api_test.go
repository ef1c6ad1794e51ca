package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/config"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/events"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/planner"
	"github.com/codeready-toolchain/nurseresearch/pkg/project"
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

type fakeController struct {
	out *agent.RunOutput
}

func (f *fakeController) Run(ctx context.Context, in agent.Input, cc *convo.Context) (*agent.RunOutput, error) {
	return f.out, nil
}

func alwaysGrounded(out *agent.RunOutput, cc *convo.Context) models.Verdict {
	return models.Verdict{Kind: models.VerdictGrounded}
}

func testConfig() *config.Config {
	agents := map[string]*config.AgentConfig{
		"pubmed_search": {Provider: "anthropic-default", MaxTokens: 4096, Tools: []string{"pubmed"}},
	}
	tools := map[string]*config.ToolConfig{"pubmed": {ContactEmail: "research@example.org"}}
	providers := map[string]*config.LLMProviderConfig{
		"anthropic-default": {Model: "claude-sonnet-4-20250514", APIKeyEnv: "ANTHROPIC_API_KEY", MaxTokens: 4096},
	}
	return &config.Config{
		Defaults:            &config.Defaults{LLMProvider: "anthropic-default"},
		Queue:               config.DefaultQueueConfig(),
		Storage:             config.DefaultStorageConfig(),
		AgentRegistry:       config.NewAgentRegistry(agents),
		ToolRegistry:        config.NewToolRegistry(tools),
		LLMProviderRegistry: config.NewLLMProviderRegistry(providers),
	}
}

// newTestServer builds a Server wired against one fake PubMed-search agent
// so utterance/run tests can exercise a real plan→execute→synthesize round
// trip without a live Anthropic client.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	pm, err := project.NewManager(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })

	client := &fakeLLM{content: "found three relevant articles on fall-risk screening."}
	core := agent.New("pubmed_search", "PubMed Search", agent.ModelConfig{Model: "fake"},
		&fakeController{out: &agent.RunOutput{Text: "found 3 articles"}}, alwaysGrounded, nil)
	reg := agent.NewRegistry(core)

	plnr := planner.New(client, []planner.AgentCapability{
		{AgentKey: "pubmed_search", Capability: "search PubMed", Actions: []string{"search_pubmed"}},
	})
	auditLog, err := audit.NewLogger(t.TempDir(), 0)
	require.NoError(t, err)
	conn := events.NewConnectionManager(time.Second)

	return NewServer(testConfig(), pm, reg, plnr, client, auditLog, conn)
}
