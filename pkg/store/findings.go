package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// SaveFinding inserts a finding, returning inserted=false when a row with
// the same (agent_source, identifier_kind, identifier) already exists —
// per §4.4, duplicates collapse to the earliest stored row and the new
// payload is discarded.
func (s *Store) SaveFinding(ctx context.Context, f models.Finding) (inserted bool, err error) {
	authors, err := json.Marshal(f.Authors)
	if err != nil {
		return false, fmt.Errorf("marshal authors: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO literature_findings
			(project_id, agent_source, kind, identifier_kind, identifier, title, authors,
			 journal_or_source, date, abstract, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (agent_source, identifier_kind, identifier) DO NOTHING`,
		f.ProjectID, f.AgentSource, string(f.Kind), string(f.IdentifierKind), f.Identifier,
		f.Title, string(authors), f.JournalOrSource, f.Date, f.Abstract, f.RawJSON,
	)
	if err != nil {
		return false, fmt.Errorf("save finding %s/%s: %w", f.IdentifierKind, f.Identifier, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save finding rows affected: %w", err)
	}
	return n > 0, nil
}

// FindingFilter restricts GetSavedFindings. Zero-value fields are ignored.
type FindingFilter struct {
	ProjectID      string
	AgentSource    string
	IdentifierKind models.IdentifierKind
	SelectedOnly   bool
}

// GetSavedFindings returns findings matching filter, oldest first.
func (s *Store) GetSavedFindings(ctx context.Context, filter FindingFilter) ([]models.Finding, error) {
	query := `SELECT id, project_id, agent_source, kind, identifier_kind, identifier, title,
		authors, journal_or_source, date, abstract, raw_json, selected, notes, created_at
		FROM literature_findings WHERE project_id = ?`
	args := []any{filter.ProjectID}

	if filter.AgentSource != "" {
		query += " AND agent_source = ?"
		args = append(args, filter.AgentSource)
	}
	if filter.IdentifierKind != "" {
		query += " AND identifier_kind = ?"
		args = append(args, string(filter.IdentifierKind))
	}
	if filter.SelectedOnly {
		query += " AND selected = 1"
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var out []models.Finding
	for rows.Next() {
		var f models.Finding
		var kind, idKind, authorsJSON string
		var selected int
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.AgentSource, &kind, &idKind, &f.Identifier,
			&f.Title, &authorsJSON, &f.JournalOrSource, &f.Date, &f.Abstract, &f.RawJSON,
			&selected, &f.Notes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Kind = models.FindingKind(kind)
		f.IdentifierKind = models.IdentifierKind(idKind)
		f.Selected = selected != 0
		_ = json.Unmarshal([]byte(authorsJSON), &f.Authors)
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkFindingSelected flips a finding's selection flag and notes.
func (s *Store) MarkFindingSelected(ctx context.Context, id int64, selected bool, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE literature_findings SET selected = ?, notes = ? WHERE id = ?`,
		boolToInt(selected), notes, id)
	if err != nil {
		return fmt.Errorf("mark finding %d selected: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mark finding %d selected: %w", id, sql.ErrNoRows)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
