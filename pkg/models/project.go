package models

import "time"

// ProjectStatus tracks a project's position in its create/activate/archive
// lifecycle (§6's admin calls).
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Project is one nursing QI research project: a name, a lifecycle status,
// and the path to its own embedded SQLite store. Only one project is ever
// "active" for conversation routing purposes at a time (§5), but archived
// projects are retained, not deleted, until the cleanup service's retention
// window for archived projects elapses.
type Project struct {
	Name       string
	Status     ProjectStatus
	CreatedAt  time.Time
	ArchivedAt *time.Time
	DataPath   string
}
