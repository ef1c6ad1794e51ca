package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// InsertRun creates a workflow_runs row. Called once by the Executor (C9)
// when it starts walking a Plan.
func (s *Store) InsertRun(ctx context.Context, run models.WorkflowRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (id, project_id, workflow_name, status, started_at, total_steps, steps_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProjectID, run.WorkflowName, string(run.Status), run.StartedAt, run.TotalSteps, run.StepsCompleted)
	if err != nil {
		return fmt.Errorf("insert workflow run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRunStatus updates a run's terminal status, finish time, and step
// count, or its error message on failure.
func (s *Store) UpdateRunStatus(ctx context.Context, run models.WorkflowRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_runs SET status = ?, finished_at = ?, steps_completed = ?, error = ?
		WHERE id = ?`,
		string(run.Status), run.FinishedAt, run.StepsCompleted, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("update workflow run %s: %w", run.ID, err)
	}
	return nil
}

// InsertStep records a workflow_steps row when the Executor begins a task.
func (s *Store) InsertStep(ctx context.Context, step models.WorkflowStep) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_steps (run_id, idx, agent_key, status, started_at, input_summary)
		VALUES (?, ?, ?, ?, ?, ?)`,
		step.RunID, step.Index, step.AgentKey, string(step.Status), step.StartedAt, step.InputSummary)
	if err != nil {
		return fmt.Errorf("insert workflow step %s[%d]: %w", step.RunID, step.Index, err)
	}
	return nil
}

// UpdateStepStatus records a step's terminal state.
func (s *Store) UpdateStepStatus(ctx context.Context, step models.WorkflowStep) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_steps
		SET status = ?, finished_at = ?, duration_ms = ?, output_summary = ?, error_context = ?
		WHERE run_id = ? AND idx = ?`,
		string(step.Status), step.FinishedAt, step.Duration.Milliseconds(),
		step.OutputSummary, step.ErrorContext, step.RunID, step.Index)
	if err != nil {
		return fmt.Errorf("update workflow step %s[%d]: %w", step.RunID, step.Index, err)
	}
	return nil
}

// GetRun returns one run's record, or ok=false if no such run exists.
func (s *Store) GetRun(ctx context.Context, runID string) (models.WorkflowRun, bool, error) {
	var run models.WorkflowRun
	var status string
	var finishedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, workflow_name, status, started_at, finished_at, total_steps, steps_completed, error
		FROM workflow_runs WHERE id = ?`, runID,
	).Scan(&run.ID, &run.ProjectID, &run.WorkflowName, &status, &run.StartedAt, &finishedAt, &run.TotalSteps, &run.StepsCompleted, &run.Error)
	if err != nil {
		if isNoRows(err) {
			return models.WorkflowRun{}, false, nil
		}
		return models.WorkflowRun{}, false, fmt.Errorf("get workflow run %s: %w", runID, err)
	}
	run.Status = models.RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return run, true, nil
}

// ListSteps returns every step recorded for runID, in execution index order.
func (s *Store) ListSteps(ctx context.Context, runID string) ([]models.WorkflowStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, agent_key, status, started_at, finished_at, duration_ms, input_summary, output_summary, error_context
		FROM workflow_steps WHERE run_id = ? ORDER BY idx ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list workflow steps %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []models.WorkflowStep
	for rows.Next() {
		var step models.WorkflowStep
		var status string
		var finishedAt sql.NullTime
		var durationMS int64
		if err := rows.Scan(&step.RunID, &step.Index, &step.AgentKey, &status, &step.StartedAt, &finishedAt,
			&durationMS, &step.InputSummary, &step.OutputSummary, &step.ErrorContext); err != nil {
			return nil, fmt.Errorf("scan workflow step: %w", err)
		}
		step.Status = models.StepStatus(status)
		step.Duration = time.Duration(durationMS) * time.Millisecond
		if finishedAt.Valid {
			step.FinishedAt = &finishedAt.Time
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow steps %s: %w", runID, err)
	}
	return steps, nil
}

// SaveOutput persists a task's output so later tasks can resolve
// `<task_id.field>` references even after a process restart.
func (s *Store) SaveOutput(ctx context.Context, out models.WorkflowOutput) error {
	payload, err := json.Marshal(out.Output)
	if err != nil {
		return fmt.Errorf("marshal workflow output: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_outputs (run_id, task_id, output) VALUES (?, ?, ?)
		ON CONFLICT (run_id, task_id) DO UPDATE SET output = excluded.output`,
		out.RunID, out.TaskID, string(payload))
	if err != nil {
		return fmt.Errorf("save workflow output %s/%s: %w", out.RunID, out.TaskID, err)
	}
	return nil
}

// DeleteFinishedRunsBefore purges every run that finished before cutoff
// (and is therefore no longer "running"), along with its steps and task
// outputs. Used by the cleanup service (pkg/cleanup) to enforce
// RetentionConfig.WorkflowRunRetentionDays. Returns the number of runs
// purged.
func (s *Store) DeleteFinishedRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete finished runs: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM workflow_runs WHERE finished_at IS NOT NULL AND finished_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete finished runs: select: %w", err)
	}
	var runIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("delete finished runs: scan: %w", err)
		}
		runIDs = append(runIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("delete finished runs: iterate: %w", err)
	}
	rows.Close()

	for _, id := range runIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_outputs WHERE run_id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete finished runs: outputs %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_steps WHERE run_id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete finished runs: steps %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_runs WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete finished runs: run %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete finished runs: commit: %w", err)
	}
	return int64(len(runIDs)), nil
}

// GetOutput returns one task's persisted output, or ok=false if no such
// task has run yet in this run.
func (s *Store) GetOutput(ctx context.Context, runID, taskID string) (map[string]any, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT output FROM workflow_outputs WHERE run_id = ? AND task_id = ?`, runID, taskID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get workflow output %s/%s: %w", runID, taskID, err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, false, fmt.Errorf("decode workflow output %s/%s: %w", runID, taskID, err)
	}
	return out, true, nil
}
