package config

// StorageConfig groups the filesystem roots wired into pkg/audit,
// pkg/store, and pkg/httpcache at startup (§6).
type StorageConfig struct {
	// AuditLogRoot is the directory audit.NewLogger writes per-agent JSONL
	// files under.
	AuditLogRoot string `yaml:"audit_log_root" validate:"required"`

	// AuditRotationBytes overrides audit.DefaultMaxBytes when > 0.
	AuditRotationBytes int64 `yaml:"audit_rotation_bytes,omitempty"`

	// ProjectDataRoot is the directory one SQLite file per project (store.Open)
	// is created under.
	ProjectDataRoot string `yaml:"project_data_root" validate:"required"`

	// HTTPCachePath is the on-disk backend the httpcache.Client persists
	// to between process restarts (in-memory LRU is always in front of it).
	HTTPCachePath string `yaml:"http_cache_path" validate:"required"`
}

// DefaultStorageConfig returns the built-in filesystem layout, relative to
// the working directory the process is started from.
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		AuditLogRoot:    "./data/audit",
		ProjectDataRoot: "./data/projects",
		HTTPCachePath:   "./data/httpcache.db",
	}
}
