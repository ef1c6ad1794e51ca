// Package executor implements the Executor (C9): it walks a Plan produced
// by the Planner, resolving `<task_id.field>` references against prior
// results and conversation artifacts, running independent tasks within a
// parallel_group concurrently (cap 3), and persisting every step and
// output to the Project Store as it goes.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/events"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
	"github.com/codeready-toolchain/nurseresearch/pkg/telemetry"
)

// maxConcurrentSteps is the parallel_group cap named in §4.9.
const maxConcurrentSteps = 3

// maxConsecutiveFailures aborts the run, per §4.9's failure policy.
const maxConsecutiveFailures = 3

// ErrCancelled is returned when the run's cancellation token fires mid-step.
var ErrCancelled = errors.New("executor: run cancelled")

// recognizedArtifacts maps an AgentTask's Action to the conversation
// artifact role the executor writes its output under on success (§4.9, §4.10).
var recognizedArtifacts = map[string]string{
	"generate_picot": "picot_draft",
	"search_pubmed":  "search_results",
	"validate":       convo.RoleValidate,
	"synthesize":     convo.RoleSynthesize,
}

// Executor walks Plans produced by the Planner against a Registry of
// specialized agents, one logical run at a time per project (§5).
type Executor struct {
	Registry  *agent.Registry
	Store     *store.Store
	Audit     *audit.Logger
	Publisher *events.Publisher // nil disables WebSocket progress events
}

// New builds an Executor. auditLog may be nil in tests that don't care
// about the decision trail. Call SetPublisher separately to wire a live
// WebSocket progress feed — most construction paths (including every
// existing test) leave it nil and get a silent no-op.
func New(registry *agent.Registry, s *store.Store, auditLog *audit.Logger) *Executor {
	return &Executor{Registry: registry, Store: s, Audit: auditLog}
}

// SetPublisher wires a WebSocket event publisher into the executor so run
// and step status transitions are broadcast to live clients as they happen.
func (e *Executor) SetPublisher(p *events.Publisher) {
	e.Publisher = p
}

// Result is what Execute returns: the run id, the per-task raw outputs
// (already resolved and recognized-artifact-written), and the terminal
// run status.
type Result struct {
	RunID   string
	Results map[string]map[string]any
	Status  models.RunStatus
}

// Execute runs plan to completion or failure against cc, returning once
// every task has succeeded, failed, been skipped, or the run aborted.
// ctx's cancellation is checked before each group starts (§4.9).
func (e *Executor) Execute(ctx context.Context, plan *models.Plan, cc *convo.Context) (*Result, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	run := models.WorkflowRun{
		ID: runID, ProjectID: cc.ProjectID, WorkflowName: plan.WorkflowName,
		Status: models.RunStatusRunning, StartedAt: time.Now().UTC(), TotalSteps: len(plan.Tasks),
	}
	if err := e.Store.InsertRun(ctx, run); err != nil {
		return nil, fmt.Errorf("executor: insert run: %w", err)
	}
	e.publishRunStatus(cc.ProjectID, runID, models.RunStatusRunning, "")

	st := newRunState(plan)

	consecutiveFailures := 0
	finalStatus := models.RunStatusSuccess
	finalErr := ""

groupLoop:
	for _, group := range groupsInOrder(plan.Tasks) {
		select {
		case <-ctx.Done():
			finalStatus, finalErr = models.RunStatusFailed, "cancelled"
			break groupLoop
		default:
		}

		runnable := st.readyTasks(group)
		if len(runnable) == 0 {
			continue
		}

		failedThisGroup := e.runGroup(ctx, runID, runnable, st, cc)
		if len(failedThisGroup) == 0 {
			consecutiveFailures = 0
		} else {
			consecutiveFailures += len(failedThisGroup)
		}
		if consecutiveFailures >= maxConsecutiveFailures {
			finalStatus, finalErr = models.RunStatusFailed, "three consecutive step failures"
			break groupLoop
		}
		if ctx.Err() != nil {
			finalStatus, finalErr = models.RunStatusFailed, "cancelled"
			break groupLoop
		}
	}

	st.markUnresolvedSkipped()

	completed, anyFailed := 0, false
	for _, s := range st.status {
		if s == models.StepSucceeded {
			completed++
		}
		if s == models.StepFailed {
			anyFailed = true
		}
	}
	if finalStatus == models.RunStatusSuccess && anyFailed {
		finalStatus, finalErr = models.RunStatusFailed, "one or more steps failed"
	}

	finishedAt := time.Now().UTC()
	if err := e.Store.UpdateRunStatus(ctx, models.WorkflowRun{
		ID: runID, Status: finalStatus, FinishedAt: &finishedAt, StepsCompleted: completed, Error: finalErr,
	}); err != nil {
		return nil, fmt.Errorf("executor: update run status: %w", err)
	}
	e.publishRunStatus(cc.ProjectID, runID, finalStatus, finalErr)

	return &Result{RunID: runID, Results: st.results, Status: finalStatus}, nil
}

func (e *Executor) publishRunStatus(projectID, runID string, status models.RunStatus, errMsg string) {
	if e.Publisher == nil {
		return
	}
	_ = e.Publisher.PublishRunStatus(projectID, events.RunStatusPayload{
		Type: events.EventTypeRunStatus, ProjectID: projectID, RunID: runID,
		Status: string(status), Error: errMsg, Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (e *Executor) publishStepStatus(projectID, runID, taskID, agentKey string, status models.StepStatus, errMsg string) {
	if e.Publisher == nil {
		return
	}
	_ = e.Publisher.PublishStepStatus(projectID, events.StepStatusPayload{
		Type: events.EventTypeStepStatus, ProjectID: projectID, RunID: runID, TaskID: taskID, AgentKey: agentKey,
		Status: string(status), Error: errMsg, Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (e *Executor) publishAgentTurn(projectID, runID, taskID, agentKey string, isRefusal bool, verdict string) {
	if e.Publisher == nil {
		return
	}
	_ = e.Publisher.PublishAgentTurn(projectID, events.AgentTurnPayload{
		Type: events.EventTypeAgentTurn, ProjectID: projectID, RunID: runID, TaskID: taskID, AgentKey: agentKey,
		IsRefusal: isRefusal, Verdict: verdict, Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// runGroup runs every task in group concurrently (bounded by
// maxConcurrentSteps), persists each step's record, folds recognized
// artifacts into cc, and returns the task ids that failed.
func (e *Executor) runGroup(ctx context.Context, runID string, group []models.AgentTask, st *runState, cc *convo.Context) []string {
	sem := make(chan struct{}, maxConcurrentSteps)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string

	for _, task := range group {
		task := task
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ok := e.runTask(ctx, runID, task, st, cc)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				failed = append(failed, task.TaskID)
			}
		}()
	}
	wg.Wait()
	return failed
}

// runTask executes one task: resolves its params, invokes the agent,
// persists the step record and output, marks completion, and writes the
// recognized artifact on success. Returns false on failure, refusal, or
// validation failure.
func (e *Executor) runTask(ctx context.Context, runID string, task models.AgentTask, st *runState, cc *convo.Context) bool {
	idx := st.indexByID[task.TaskID]
	started := time.Now().UTC()
	st.setStatus(task.TaskID, models.StepRunning)

	resolvedParams, unresolved := resolveParams(task.Params, st, cc)
	for _, ref := range unresolved {
		e.logDecision(runID, task.TaskID, fmt.Sprintf("unresolved reference %s, substituted null", ref))
	}
	_ = e.Store.InsertStep(ctx, models.WorkflowStep{
		RunID: runID, Index: idx, AgentKey: task.AgentKey, Status: models.StepRunning,
		StartedAt: started, InputSummary: summarizeParams(resolvedParams),
	})
	e.publishStepStatus(cc.ProjectID, runID, task.TaskID, task.AgentKey, models.StepRunning, "")

	core, ok := e.Registry.Get(task.AgentKey)
	if !ok {
		e.finishStep(ctx, cc.ProjectID, runID, task, idx, started, models.StepFailed, "", fmt.Sprintf("no agent registered for key %s", task.AgentKey))
		st.setStatus(task.TaskID, models.StepFailed)
		return false
	}

	query := queryFromParams(resolvedParams)
	spanCtx, endSpan := telemetry.StartStep(ctx, runID, task.AgentKey, task.Action)
	out, verdict, err := core.Invoke(spanCtx, agent.Input{
		ProjectID: cc.ProjectID, SessionID: cc.SessionID, Action: task.Action, Query: query, Params: resolvedParams,
	}, cc)
	endSpan(err)
	if err != nil {
		e.finishStep(ctx, cc.ProjectID, runID, task, idx, started, models.StepFailed, "", err.Error())
		st.setStatus(task.TaskID, models.StepFailed)
		return false
	}
	e.publishAgentTurn(cc.ProjectID, runID, task.TaskID, task.AgentKey, out.IsRefusal, string(verdict.Kind))

	output := map[string]any{"text": out.Text, "is_refusal": out.IsRefusal}
	if art, ok := out.Artifacts["validated_articles"]; ok {
		output["findings"] = art
	}
	_ = e.Store.SaveOutput(ctx, models.WorkflowOutput{RunID: runID, TaskID: task.TaskID, Output: map[string]any{"output": output}})
	st.setResult(task.TaskID, map[string]any{"output": output})

	if verdict.Kind == models.VerdictHallucinate {
		// validation_failed is final for this step; never retried (§4.9).
		e.finishStep(ctx, cc.ProjectID, runID, task, idx, started, models.StepFailed, "", "validation_failed: "+strings.Join(verdict.Unverified, ", "))
		st.setStatus(task.TaskID, models.StepFailed)
		cc.MarkCompleted(task.AgentKey, task.Action)
		return false
	}

	e.finishStep(ctx, cc.ProjectID, runID, task, idx, started, models.StepSucceeded, out.Text, "")
	st.setStatus(task.TaskID, models.StepSucceeded)
	cc.MarkCompleted(task.AgentKey, task.Action)

	if role, ok := recognizedArtifacts[task.Action]; ok {
		cc.AddArtifact(role, out.Text)
	}
	return true
}

func (e *Executor) finishStep(ctx context.Context, projectID, runID string, task models.AgentTask, idx int, started time.Time, status models.StepStatus, outputSummary, errCtx string) {
	finished := time.Now().UTC()
	_ = e.Store.UpdateStepStatus(ctx, models.WorkflowStep{
		RunID: runID, Index: idx, Status: status, StartedAt: started, FinishedAt: &finished,
		Duration: finished.Sub(started), OutputSummary: truncate(outputSummary, 500), ErrorContext: errCtx,
	})
	e.publishStepStatus(projectID, runID, task.TaskID, task.AgentKey, status, errCtx)
}

func (e *Executor) logDecision(runID, taskID, reason string) {
	if e.Audit == nil {
		return
	}
	_ = e.Audit.Log(audit.Entry{
		Timestamp: time.Now().UTC(), AgentKey: "executor", SessionID: runID,
		ActionType: audit.ActionDecision, Payload: map[string]any{"task_id": taskID, "reason": reason},
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
