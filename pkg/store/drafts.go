package store

import (
	"context"
	"fmt"
)

// PICOTVersion is one snapshot of a project's PICOT question, written by
// the PICOT/Writing Agent (C7.1) each time the question is refined.
type PICOTVersion struct {
	ID           int64
	ProjectID    string
	Population   string
	Intervention string
	Comparison   string
	Outcome      string
	Timeframe    string
}

// SavePICOTVersion appends a new PICOT snapshot; versions are never
// updated in place, so the full refinement history stays available.
func (s *Store) SavePICOTVersion(ctx context.Context, v PICOTVersion) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO picot_versions (project_id, population, intervention, comparison, outcome, timeframe)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ProjectID, v.Population, v.Intervention, v.Comparison, v.Outcome, v.Timeframe)
	if err != nil {
		return 0, fmt.Errorf("save picot version: %w", err)
	}
	return res.LastInsertId()
}

// LatestPICOTVersion returns the most recently saved PICOT snapshot for a
// project, or ok=false if none exists yet.
func (s *Store) LatestPICOTVersion(ctx context.Context, projectID string) (PICOTVersion, bool, error) {
	var v PICOTVersion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, population, intervention, comparison, outcome, timeframe
		FROM picot_versions WHERE project_id = ? ORDER BY created_at DESC LIMIT 1`, projectID,
	).Scan(&v.ID, &v.ProjectID, &v.Population, &v.Intervention, &v.Comparison, &v.Outcome, &v.Timeframe)
	if err != nil {
		if isNoRows(err) {
			return PICOTVersion{}, false, nil
		}
		return PICOTVersion{}, false, fmt.Errorf("latest picot version: %w", err)
	}
	return v, true, nil
}

// WritingDraft is one versioned section of the final writeup, written by
// the PICOT/Writing Agent.
type WritingDraft struct {
	ID        int64
	ProjectID string
	Section   string
	Content   string
	Version   int
}

// SaveWritingDraft appends a new version of a section's draft content.
func (s *Store) SaveWritingDraft(ctx context.Context, d WritingDraft) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO writing_drafts (project_id, section, content, version)
		VALUES (?, ?, ?, ?)`,
		d.ProjectID, d.Section, d.Content, d.Version)
	if err != nil {
		return 0, fmt.Errorf("save writing draft: %w", err)
	}
	return res.LastInsertId()
}

// LatestWritingDraft returns the highest-version draft for a section.
func (s *Store) LatestWritingDraft(ctx context.Context, projectID, section string) (WritingDraft, bool, error) {
	var d WritingDraft
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, section, content, version FROM writing_drafts
		WHERE project_id = ? AND section = ? ORDER BY version DESC LIMIT 1`, projectID, section,
	).Scan(&d.ID, &d.ProjectID, &d.Section, &d.Content, &d.Version)
	if err != nil {
		if isNoRows(err) {
			return WritingDraft{}, false, nil
		}
		return WritingDraft{}, false, fmt.Errorf("latest writing draft: %w", err)
	}
	return d, true, nil
}
