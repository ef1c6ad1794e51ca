package config

import "time"

// RetentionConfig controls the background cleanup service's (pkg/cleanup)
// data retention behavior: how long finished workflow runs stay queryable
// and how long an archived project's data is kept before its on-disk store
// is purged.
type RetentionConfig struct {
	// WorkflowRunRetentionDays is how many days a finished (success or
	// failed) workflow run, its steps, and its task outputs are kept in a
	// project's store before being purged. Running runs are never purged.
	WorkflowRunRetentionDays int `yaml:"workflow_run_retention_days"`

	// ArchivedProjectRetentionDays is how many days an archived project's
	// directory (manifest entry + SQLite file) is kept before being
	// deleted outright. A project never ages out while active.
	ArchivedProjectRetentionDays int `yaml:"archived_project_retention_days"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		WorkflowRunRetentionDays:     90,
		ArchivedProjectRetentionDays: 365,
		CleanupInterval:              12 * time.Hour,
	}
}
