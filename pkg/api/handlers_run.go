package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getRunHandler handles GET /api/v1/projects/:project/runs/:run_id — the
// run/step inspection endpoint named in §4.14.
func (s *Server) getRunHandler(c *gin.Context) {
	projectName := c.Param("project")
	runID := c.Param("run_id")

	_, projectStore, err := s.projects.Get(projectName)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	run, ok, err := projectStore.GetRun(ctx, runID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok || run.ProjectID != projectName {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	steps, err := projectStore.ListSteps(ctx, runID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := RunResponse{
		RunID: run.ID, ProjectID: run.ProjectID, WorkflowName: run.WorkflowName,
		Status: string(run.Status), StartedAt: run.StartedAt, FinishedAt: run.FinishedAt,
		TotalSteps: run.TotalSteps, StepsCompleted: run.StepsCompleted, Error: run.Error,
		Steps: make([]StepResponse, 0, len(steps)),
	}
	for _, step := range steps {
		resp.Steps = append(resp.Steps, StepResponse{
			Index: step.Index, AgentKey: step.AgentKey, Status: string(step.Status),
			StartedAt: step.StartedAt, FinishedAt: step.FinishedAt,
			OutputSummary: step.OutputSummary, ErrorContext: step.ErrorContext,
		})
	}
	c.JSON(http.StatusOK, resp)
}
