package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRunHandler_HappyPath(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")

	utt := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles"})
	require.Equal(t, http.StatusOK, utt.Code)
	var uttResp UtteranceResponse
	require.NoError(t, json.Unmarshal(utt.Body.Bytes(), &uttResp))
	require.NotEmpty(t, uttResp.RunID)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/projects/fall-risk-qi/runs/"+uttResp.RunID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var run RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, uttResp.RunID, run.RunID)
	assert.Equal(t, "fall-risk-qi", run.ProjectID)
	assert.Equal(t, "basic_research", run.WorkflowName)
	assert.Equal(t, "success", run.Status)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, "pubmed_search", run.Steps[0].AgentKey)
	assert.Equal(t, "succeeded", run.Steps[0].Status)
}

func TestGetRunHandler_UnknownProjectNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/projects/does-not-exist/runs/run-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunHandler_UnknownRunNotFound(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/projects/fall-risk-qi/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunHandler_RunBelongingToAnotherProjectNotFound(t *testing.T) {
	s := newTestServer(t)
	createTestProject(t, s, "fall-risk-qi")
	createTestProject(t, s, "pressure-injury-qi")

	utt := doJSON(t, s, http.MethodPost, "/api/v1/projects/fall-risk-qi/utterances",
		UtteranceRequest{Utterance: "quick search for fall risk articles"})
	require.Equal(t, http.StatusOK, utt.Code)
	var uttResp UtteranceResponse
	require.NoError(t, json.Unmarshal(utt.Body.Bytes(), &uttResp))
	require.NotEmpty(t, uttResp.RunID)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/projects/pressure-injury-qi/runs/"+uttResp.RunID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
