package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// ConversationTurn is one append-only row written when a Conversation
// Context (C10) flushes its in-memory buffer to the store.
type ConversationTurn struct {
	ProjectID string
	TurnIndex int
	Role      string // "user" or "assistant"
	Content   string
	Artifacts map[string]any
}

// AppendConversationTurn writes one turn. Conversation Context only ever
// appends; it never updates or deletes a stored turn.
func (s *Store) AppendConversationTurn(ctx context.Context, t ConversationTurn) error {
	artifacts, err := json.Marshal(t.Artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (project_id, turn_index, role, content, artifacts)
		VALUES (?, ?, ?, ?, ?)`,
		t.ProjectID, t.TurnIndex, t.Role, t.Content, string(artifacts))
	if err != nil {
		return fmt.Errorf("append conversation turn: %w", err)
	}
	return nil
}

// LoadRecentTurns returns the most recent n turns for a project in
// chronological order (oldest of the window first), per §4.3's
// "load_from_db (last 10 turns)" contract.
func (s *Store) LoadRecentTurns(ctx context.Context, projectID string, n int) ([]ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, turn_index, role, content, artifacts
		FROM conversations WHERE project_id = ?
		ORDER BY turn_index DESC LIMIT ?`, projectID, n)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	var reversed []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		var artifactsJSON string
		if err := rows.Scan(&t.ProjectID, &t.TurnIndex, &t.Role, &t.Content, &artifactsJSON); err != nil {
			return nil, fmt.Errorf("scan conversation turn: %w", err)
		}
		_ = json.Unmarshal([]byte(artifactsJSON), &t.Artifacts)
		reversed = append(reversed, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ConversationTurn, len(reversed))
	for i, t := range reversed {
		out[len(reversed)-1-i] = t
	}
	return out, nil
}
