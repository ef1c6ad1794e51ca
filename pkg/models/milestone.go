package models

import "time"

// MilestoneStatus tracks progress of a single project timeline milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneComplete   MilestoneStatus = "complete"
	MilestoneBlocked    MilestoneStatus = "blocked"
)

// Milestone is a single project timeline entry. The timeline agent (C7.5) is
// the only writer; other agents only ever read milestones.
type Milestone struct {
	ID           int64
	ProjectID    string
	Name         string
	DueDate      time.Time
	Status       MilestoneStatus
	Deliverables []string
	Notes        string
}
