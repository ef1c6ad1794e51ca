package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, s *Server, name string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/projects", CreateProjectRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestUtteranceHandler_HappyPath(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles", TurnIndex: 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UtteranceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ReplyText)
	assert.NotEmpty(t, resp.Suggestions)
	assert.NotEmpty(t, resp.RunID)
}

func TestUtteranceHandler_UnknownProjectNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/projects/does-not-exist/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUtteranceHandler_CannotUnderstandRepliesWithoutRun(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "tell me a joke"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UtteranceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.ReplyText, "not sure")
	assert.NotEmpty(t, resp.Suggestions)
	assert.Empty(t, resp.RunID)
}

func TestUtteranceHandler_ReusesCachedConversationContext(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")

	first := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles"})
	require.Equal(t, http.StatusOK, first.Code)

	s.convoMu.Lock()
	cc, ok := s.convos["fall-risk-qi"]
	s.convoMu.Unlock()
	require.True(t, ok)
	require.True(t, cc.IsCompleted("pubmed_search", "search_pubmed"))

	second := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles"})
	require.Equal(t, http.StatusOK, second.Code)

	s.convoMu.Lock()
	cc2, ok := s.convos["fall-risk-qi"]
	s.convoMu.Unlock()
	require.True(t, ok)
	assert.Same(t, cc, cc2, "expected the same cached conversation context across requests")
}
