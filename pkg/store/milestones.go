package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// InsertMilestone adds a new milestone row. Only the Timeline Agent (C7.5)
// is expected to call this — the store itself does not enforce that, since
// write authorization is an agent-layer concern.
func (s *Store) InsertMilestone(ctx context.Context, m models.Milestone) (int64, error) {
	deliverables, err := json.Marshal(m.Deliverables)
	if err != nil {
		return 0, fmt.Errorf("marshal deliverables: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO milestones (project_id, name, due_date, status, deliverables, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ProjectID, m.Name, m.DueDate, string(m.Status), string(deliverables), m.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert milestone: %w", err)
	}
	return res.LastInsertId()
}

// ListMilestones returns every milestone for a project, due date ascending.
func (s *Store) ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error) {
	return s.queryMilestones(ctx,
		`SELECT id, project_id, name, due_date, status, deliverables, notes
		 FROM milestones WHERE project_id = ? ORDER BY due_date ASC`, projectID)
}

// ListNextMilestone returns the single nearest not-yet-complete milestone,
// or ok=false if none remain.
func (s *Store) ListNextMilestone(ctx context.Context, projectID string, after time.Time) (models.Milestone, bool, error) {
	ms, err := s.queryMilestones(ctx, `
		SELECT id, project_id, name, due_date, status, deliverables, notes
		FROM milestones
		WHERE project_id = ? AND due_date >= ? AND status != 'complete'
		ORDER BY due_date ASC LIMIT 1`, projectID, after)
	if err != nil {
		return models.Milestone{}, false, err
	}
	if len(ms) == 0 {
		return models.Milestone{}, false, nil
	}
	return ms[0], true, nil
}

// ListMilestonesBetween returns milestones due within [from, to].
func (s *Store) ListMilestonesBetween(ctx context.Context, projectID string, from, to time.Time) ([]models.Milestone, error) {
	return s.queryMilestones(ctx, `
		SELECT id, project_id, name, due_date, status, deliverables, notes
		FROM milestones WHERE project_id = ? AND due_date BETWEEN ? AND ?
		ORDER BY due_date ASC`, projectID, from, to)
}

// UpdateMilestoneStatus changes a milestone's status.
func (s *Store) UpdateMilestoneStatus(ctx context.Context, id int64, status models.MilestoneStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE milestones SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update milestone %d status: %w", id, err)
	}
	return nil
}

func (s *Store) queryMilestones(ctx context.Context, query string, args ...any) ([]models.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	var out []models.Milestone
	for rows.Next() {
		var m models.Milestone
		var status, deliverablesJSON string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.DueDate, &status, &deliverablesJSON, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		m.Status = models.MilestoneStatus(status)
		_ = json.Unmarshal([]byte(deliverablesJSON), &m.Deliverables)
		out = append(out, m)
	}
	return out, rows.Err()
}
