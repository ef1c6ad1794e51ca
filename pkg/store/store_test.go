package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/httpcache"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveFinding_DedupesByIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := models.Finding{
		ProjectID: "proj-1", AgentSource: "pubmed", Kind: models.KindArticle,
		IdentifierKind: models.IdentifierPMID, Identifier: "30191554", Title: "First payload",
	}
	inserted, err := s.SaveFinding(ctx, f)
	require.NoError(t, err)
	assert.True(t, inserted)

	f.Title = "Second payload, should be discarded"
	inserted, err = s.SaveFinding(ctx, f)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetSavedFindings(ctx, FindingFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "First payload", got[0].Title, "duplicate identifier must collapse to the earliest row")
}

func TestStore_MarkFindingSelected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveFinding(ctx, models.Finding{
		ProjectID: "p", AgentSource: "arxiv", IdentifierKind: models.IdentifierArXiv, Identifier: "2103.12345",
	})
	require.NoError(t, err)

	found, err := s.GetSavedFindings(ctx, FindingFilter{ProjectID: "p"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, s.MarkFindingSelected(ctx, found[0].ID, true, "relevant to synthesis"))

	selected, err := s.GetSavedFindings(ctx, FindingFilter{ProjectID: "p", SelectedOnly: true})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.True(t, selected[0].Selected)
	assert.Equal(t, "relevant to synthesis", selected[0].Notes)
}

func TestStore_Milestones_ListNextAndBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.InsertMilestone(ctx, models.Milestone{ProjectID: "p", Name: "IRB submission", DueDate: base, Status: models.MilestoneComplete})
	require.NoError(t, err)
	_, err = s.InsertMilestone(ctx, models.Milestone{ProjectID: "p", Name: "Data collection", DueDate: base.AddDate(0, 1, 0), Status: models.MilestoneNotStarted})
	require.NoError(t, err)

	next, ok, err := s.ListNextMilestone(ctx, "p", base)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Data collection", next.Name, "completed milestones must not be returned as next")

	between, err := s.ListMilestonesBetween(ctx, "p", base, base.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.Len(t, between, 2)
}

func TestStore_ConversationTurns_LoadRecentInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, s.AppendConversationTurn(ctx, ConversationTurn{
			ProjectID: "p", TurnIndex: i, Role: "user", Content: "turn",
		}))
	}

	recent, err := s.LoadRecentTurns(ctx, "p", 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, 5, recent[0].TurnIndex, "oldest of the 10-turn window")
	assert.Equal(t, 14, recent[9].TurnIndex, "most recent turn last")
}

func TestStore_WorkflowOutput_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRun(ctx, models.WorkflowRun{ID: "run-1", ProjectID: "p", Status: models.RunStatusRunning, StartedAt: time.Now()}))
	require.NoError(t, s.SaveOutput(ctx, models.WorkflowOutput{RunID: "run-1", TaskID: "t1", Output: map[string]any{"pmids": []any{"1", "2"}}}))

	out, ok, err := s.GetOutput(ctx, "run-1", "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"1", "2"}, out["pmids"])

	_, ok, err = s.GetOutput(ctx, "run-1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_GetRunAndListSteps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRun(ctx, models.WorkflowRun{ID: "run-1", ProjectID: "p", WorkflowName: "basic_research", Status: models.RunStatusRunning, StartedAt: time.Now(), TotalSteps: 1}))
	require.NoError(t, s.InsertStep(ctx, models.WorkflowStep{RunID: "run-1", Index: 0, AgentKey: "pubmed", Status: models.StepRunning, StartedAt: time.Now()}))
	require.NoError(t, s.UpdateStepStatus(ctx, models.WorkflowStep{RunID: "run-1", Index: 0, Status: models.StepSucceeded, StartedAt: time.Now(), OutputSummary: "found 3 articles"}))

	finished := time.Now()
	require.NoError(t, s.UpdateRunStatus(ctx, models.WorkflowRun{ID: "run-1", Status: models.RunStatusSuccess, FinishedAt: &finished, StepsCompleted: 1}))

	run, ok, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.StepsCompleted)
	require.NotNil(t, run.FinishedAt)

	steps, err := s.ListSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepSucceeded, steps[0].Status)
	assert.Equal(t, "found 3 articles", steps[0].OutputSummary)

	_, ok, err = s.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteFinishedRunsBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, s.InsertRun(ctx, models.WorkflowRun{ID: "old-run", ProjectID: "p", Status: models.RunStatusRunning, StartedAt: old, TotalSteps: 1}))
	oldFinished := old.Add(time.Minute)
	require.NoError(t, s.UpdateRunStatus(ctx, models.WorkflowRun{ID: "old-run", Status: models.RunStatusSuccess, FinishedAt: &oldFinished, StepsCompleted: 1}))
	require.NoError(t, s.InsertStep(ctx, models.WorkflowStep{RunID: "old-run", Index: 0, AgentKey: "pubmed", Status: models.StepSucceeded, StartedAt: old}))
	require.NoError(t, s.SaveOutput(ctx, models.WorkflowOutput{RunID: "old-run", TaskID: "t1", Output: map[string]any{"found": 1}}))

	require.NoError(t, s.InsertRun(ctx, models.WorkflowRun{ID: "recent-run", ProjectID: "p", Status: models.RunStatusRunning, StartedAt: time.Now(), TotalSteps: 1}))
	recentFinished := time.Now()
	require.NoError(t, s.UpdateRunStatus(ctx, models.WorkflowRun{ID: "recent-run", Status: models.RunStatusSuccess, FinishedAt: &recentFinished, StepsCompleted: 1}))

	require.NoError(t, s.InsertRun(ctx, models.WorkflowRun{ID: "still-running", ProjectID: "p", Status: models.RunStatusRunning, StartedAt: old, TotalSteps: 1}))

	purged, err := s.DeleteFinishedRunsBefore(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, ok, err := s.GetRun(ctx, "old-run")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetOutput(ctx, "old-run", "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetRun(ctx, "recent-run")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.GetRun(ctx, "still-running")
	require.NoError(t, err)
	assert.True(t, ok, "a still-running run must never be purged regardless of age")
}

func TestCacheBackend_SetGetAndExpiry(t *testing.T) {
	s := newTestStore(t)
	backend := NewCacheBackend(s)

	require.NoError(t, backend.Set("key-1", httpcache.Entry{StatusCode: 200, Body: []byte("cached")}, time.Hour))
	entry, ok, err := backend.Get("key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("cached"), entry.Body)

	require.NoError(t, backend.Set("key-2", httpcache.Entry{StatusCode: 200, Body: []byte("stale")}, -time.Hour))
	_, ok, err = backend.Get("key-2")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries must not be returned")
}
