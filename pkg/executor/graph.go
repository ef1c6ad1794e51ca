package executor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// runState is the executor's mutable bookkeeping for one Plan walk: step
// status, resolved results keyed by task id, and a lookup of each task's
// plan index (for persisted step ordering).
type runState struct {
	mu        sync.Mutex
	plan      *models.Plan
	byID      map[string]models.AgentTask
	status    map[string]models.StepStatus
	results   map[string]map[string]any
	indexByID map[string]int
}

func newRunState(plan *models.Plan) *runState {
	st := &runState{
		plan:      plan,
		byID:      indexByID(plan.Tasks),
		status:    make(map[string]models.StepStatus, len(plan.Tasks)),
		results:   make(map[string]map[string]any, len(plan.Tasks)),
		indexByID: make(map[string]int, len(plan.Tasks)),
	}
	for i, t := range plan.Tasks {
		st.status[t.TaskID] = models.StepPending
		st.indexByID[t.TaskID] = i
	}
	return st
}

func indexByID(tasks []models.AgentTask) map[string]models.AgentTask {
	m := make(map[string]models.AgentTask, len(tasks))
	for _, t := range tasks {
		m[t.TaskID] = t
	}
	return m
}

func (st *runState) setStatus(taskID string, s models.StepStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status[taskID] = s
}

func (st *runState) getStatus(taskID string) models.StepStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status[taskID]
}

func (st *runState) setResult(taskID string, output map[string]any) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.results[taskID] = output
}

func (st *runState) getResult(taskID string) (map[string]any, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	r, ok := st.results[taskID]
	return r, ok
}

// readyTasks filters group to the tasks whose dependencies have all
// succeeded. A task with any failed or skipped dependency is marked
// skipped_due_to_dependency instead and excluded; it is never retried.
func (st *runState) readyTasks(group []models.AgentTask) []models.AgentTask {
	var ready []models.AgentTask
	for _, t := range group {
		if st.getStatus(t.TaskID) != models.StepPending {
			continue
		}
		blocked := false
		for _, dep := range t.DependsOn {
			switch st.getStatus(dep) {
			case models.StepSucceeded:
				// fine
			case models.StepFailed, models.StepSkipped:
				blocked = true
			default:
				// a dependency in a later group hasn't run yet at all; this
				// only happens if the plan's groupsInOrder lied about
				// ordering, which it never does, but treat conservatively.
				blocked = true
			}
		}
		if blocked {
			st.setStatus(t.TaskID, models.StepSkipped)
			continue
		}
		ready = append(ready, t)
	}
	return ready
}

// markUnresolvedSkipped catches any task that never ran because every
// group preceding it aborted early (three-consecutive-failures or
// cancellation): it transitively depends on something that never
// completed, so it is marked skipped rather than left pending forever.
func (st *runState) markUnresolvedSkipped() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.status {
		if s == models.StepPending {
			st.status[id] = models.StepSkipped
		}
	}
}

// groupsInOrder partitions tasks into their execution groups, preserving
// plan order: a contiguous run of tasks sharing a non-empty ParallelGroup
// becomes one group; every other task is its own singleton group.
func groupsInOrder(tasks []models.AgentTask) [][]models.AgentTask {
	var groups [][]models.AgentTask
	seen := make(map[string]int) // parallel_group name -> index into groups

	for _, t := range tasks {
		if t.ParallelGroup == "" {
			groups = append(groups, []models.AgentTask{t})
			continue
		}
		if gi, ok := seen[t.ParallelGroup]; ok {
			groups[gi] = append(groups[gi], t)
			continue
		}
		seen[t.ParallelGroup] = len(groups)
		groups = append(groups, []models.AgentTask{t})
	}
	return groups
}

// resolveParams walks task params, substituting any string value of the
// form "<task_id.field[.field...]>" with the referenced task's output
// navigated by dotted path, or "<artifact_role>" with a conversation
// artifact. A reference whose task hasn't run, or whose path doesn't
// resolve, yields nil and is reported back for an audit decision entry
// (§4.9).
func resolveParams(params map[string]any, st *runState, cc *convo.Context) (map[string]any, []string) {
	if params == nil {
		return map[string]any{}, nil
	}
	resolved := make(map[string]any, len(params))
	var unresolved []string
	for k, v := range params {
		s, ok := v.(string)
		if !ok || !isReference(s) {
			resolved[k] = v
			continue
		}
		ref := strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
		val, ok := resolveReference(ref, st, cc)
		if !ok {
			resolved[k] = nil
			unresolved = append(unresolved, s)
			continue
		}
		resolved[k] = val
	}
	return resolved, unresolved
}

func isReference(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

// resolveReference handles both "<task_id.field.field>" (navigates a
// prior task's output) and "<artifact_role>" (a bare name with no dot,
// read from the conversation context's artifact map).
func resolveReference(ref string, st *runState, cc *convo.Context) (any, bool) {
	parts := strings.Split(ref, ".")
	if len(parts) == 1 {
		if cc == nil {
			return nil, false
		}
		return cc.GetArtifact(parts[0])
	}

	output, ok := st.getResult(parts[0])
	if !ok {
		return nil, false
	}
	var cur any = output
	for _, field := range parts[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[field]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func summarizeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	i := 0
	for k, v := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, truncateAny(v, 80))
		i++
	}
	return b.String()
}

func truncateAny(v any, n int) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// queryFromParams derives the natural-language query handed to an agent
// from its resolved params: prefers an explicit "query" field, else joins
// every string-valued param for context.
func queryFromParams(params map[string]any) string {
	if q, ok := params["query"].(string); ok && q != "" {
		return q
	}
	var parts []string
	for k, v := range params {
		if s, ok := v.(string); ok && s != "" {
			parts = append(parts, k+": "+s)
		}
	}
	return strings.Join(parts, "; ")
}
