// Package models holds the data types shared across the orchestration core:
// utterances, agent tasks, plans, findings, milestones, and workflow run records.
package models

import "time"

// Utterance is a single free-text turn from the user.
type Utterance struct {
	ProjectID        string
	Text             string
	ExplicitWorkflow *string // optional explicit-workflow hint, e.g. "validated_research"
	TurnIndex        int     // monotonically increasing per project
	ReceivedAt       time.Time
}
