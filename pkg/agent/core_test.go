package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

type fakeController struct {
	out *RunOutput
	err error
}

func (f *fakeController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	return f.out, f.err
}

func newTestCC(t *testing.T) *convo.Context {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return convo.New("p1", "s1", s)
}

func newTestLogger(t *testing.T) *audit.Logger {
	t.Helper()
	l, err := audit.NewLogger(t.TempDir(), 0)
	require.NoError(t, err)
	return l
}

func TestCore_Invoke_HallucinatedSubstitutesRefusalAndDropsArtifacts(t *testing.T) {
	controller := &fakeController{out: &RunOutput{
		Text:      "See PMID: 99999999 for evidence.",
		Verified:  map[string]bool{},
		Artifacts: map[string]any{"should_not_land": true},
	}}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		return Ground(ExtractCitations(out.Text), out.Verified, out.IsRefusal)
	}
	core := New("test_agent", "Test Agent", ModelConfig{Model: "fake"}, controller, grounding, newTestLogger(t))
	cc := newTestCC(t)

	out, verdict, err := core.Invoke(context.Background(), Input{SessionID: "s1", Query: "q"}, cc)

	require.NoError(t, err)
	assert.Equal(t, models.VerdictHallucinate, verdict.Kind)
	assert.Equal(t, refusalText, out.Text)
	assert.False(t, cc.HasArtifact("should_not_land"))
}

func TestCore_Invoke_GroundedAppendsDisclaimerAndFoldsArtifacts(t *testing.T) {
	controller := &fakeController{out: &RunOutput{
		Text:      "PICOT question drafted.",
		Verified:  map[string]bool{},
		Artifacts: map[string]any{"test_role": "value"},
	}}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		return Ground(ExtractCitations(out.Text), out.Verified, out.IsRefusal)
	}
	core := New("test_agent", "Test Agent", ModelConfig{Model: "fake"}, controller, grounding, newTestLogger(t))
	cc := newTestCC(t)

	out, verdict, err := core.Invoke(context.Background(), Input{SessionID: "s1", Query: "q"}, cc)

	require.NoError(t, err)
	assert.Equal(t, models.VerdictGrounded, verdict.Kind)
	assert.Contains(t, out.Text, "PICOT question drafted.")
	assert.Contains(t, out.Text, "research-methodology guidance")
	v, ok := cc.GetArtifact("test_role")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestCore_Invoke_PropagatesControllerError(t *testing.T) {
	controller := &fakeController{err: assert.AnError}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict { return models.Verdict{} }
	core := New("test_agent", "Test Agent", ModelConfig{Model: "fake"}, controller, grounding, newTestLogger(t))

	_, _, err := core.Invoke(context.Background(), Input{SessionID: "s1"}, newTestCC(t))
	assert.Error(t, err)
}
