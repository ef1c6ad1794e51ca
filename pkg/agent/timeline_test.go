package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

func newTestStoreForTimeline(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTimelineController_VerifiedSetIsCurrentMilestoneDates(t *testing.T) {
	s := newTestStoreForTimeline(t)
	ctx := context.Background()
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.InsertMilestone(ctx, models.Milestone{ProjectID: "p1", Name: "IRB submission", DueDate: due, Status: models.MilestoneNotStarted})
	require.NoError(t, err)

	fake := &fakeLLM{responses: []*llm.Response{{Content: "IRB submission is due 2026-09-01.", FinishReason: "stop"}}}
	controller := &timelineController{Store: s, LLM: fake}

	out, err := controller.Run(ctx, Input{ProjectID: "p1", Query: "when is IRB due?"}, nil)

	require.NoError(t, err)
	assert.True(t, out.Verified["2026-09-01"])
}

func TestTimelineAgent_HallucinatesOnDateNotInMilestoneTable(t *testing.T) {
	s := newTestStoreForTimeline(t)
	ctx := context.Background()
	fake := &fakeLLM{responses: []*llm.Response{{Content: "The deadline is 2030-01-01.", FinishReason: "stop"}}}
	a := NewTimelineAgent(fake, s, newTestLogger(t))

	out, verdict, err := a.Invoke(ctx, Input{ProjectID: "p1", SessionID: "s1", Query: "q"}, newTestCC(t))

	require.NoError(t, err)
	assert.Equal(t, models.VerdictHallucinate, verdict.Kind)
	assert.Equal(t, refusalText, out.Text)
}
