package convo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContext_PhaseIsPureFunctionOfArtifacts(t *testing.T) {
	c := New("p1", "s1", newTestStore(t))
	assert.Equal(t, PhasePlanning, c.Phase())

	c.AddArtifact(RoleSearchPubMed, []string{"30191554"})
	assert.Equal(t, PhaseSearching, c.Phase())

	c.AddArtifact(RoleValidate, true)
	assert.Equal(t, PhaseAnalyzing, c.Phase())

	c.AddArtifact(RoleSynthesize, "draft text")
	assert.Equal(t, PhaseWriting, c.Phase())
}

func TestContext_AddMessageEvictsOldestPastCapacity(t *testing.T) {
	s := newTestStore(t)
	c := New("p1", "s1", s)
	ctx := context.Background()

	for i := 0; i < capacity+5; i++ {
		require.NoError(t, c.AddMessage(ctx, "user", "hello", nil))
	}

	c.mu.Lock()
	bufLen := len(c.messages)
	c.mu.Unlock()
	assert.Equal(t, capacity, bufLen, "buffer must stay at capacity after eviction")

	turns, err := s.LoadRecentTurns(ctx, "p1", 100)
	require.NoError(t, err)
	assert.Len(t, turns, 5, "the 5 evicted messages must have been persisted")
}

func TestContext_SaveAndLoadFromDB(t *testing.T) {
	s := newTestStore(t)
	c := New("p1", "s1", s)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddMessage(ctx, "user", "turn", nil))
	}
	require.NoError(t, c.SaveToDB(ctx))

	c.mu.Lock()
	assert.Empty(t, c.messages, "save_to_db must clear the in-memory buffer")
	c.mu.Unlock()

	reloaded := New("p1", "s2", s)
	require.NoError(t, reloaded.LoadFromDB(ctx))
	reloaded.mu.Lock()
	assert.Len(t, reloaded.messages, 3)
	reloaded.mu.Unlock()
}

func TestContext_GetSummaryIncludesPhaseAndArtifacts(t *testing.T) {
	c := New("p1", "s1", newTestStore(t))
	ctx := context.Background()
	require.NoError(t, c.AddMessage(ctx, "user", "help me plan a fall-prevention QI project", nil))
	c.AddArtifact(RoleSearchPubMed, []string{"1"})
	c.MarkCompleted("pubmed_agent", "search_pubmed")

	summary := c.GetSummary()
	assert.Contains(t, summary, "phase=searching")
	assert.Contains(t, summary, "search_pubmed")
	assert.Contains(t, summary, "fall-prevention")
}
