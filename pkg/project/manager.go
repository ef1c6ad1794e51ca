// Package project owns the project lifecycle the spec's four administrative
// calls drive: create_project, list_projects, activate_project,
// archive_project (§6). There is no shared database for this: each project
// gets its own directory under StorageConfig.ProjectDataRoot holding a
// per-project SQLite file (pkg/store), and Manager tracks which names exist
// and their active/archived status in a small on-disk JSON manifest — the
// same "embed the whole state in one file, load once, rewrite on change"
// shape pkg/config's loader uses for research.yaml, scaled down to a
// registry instead of a config tree.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

var (
	// ErrNotFound is returned when a project name has no matching manifest entry.
	ErrNotFound = errors.New("project: not found")

	// ErrAlreadyExists is returned by Create when the name is already registered.
	ErrAlreadyExists = errors.New("project: already exists")
)

// ValidationError wraps field-specific validation errors, mirroring the
// teacher's services.ValidationError shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Manager owns the project registry and the lazily-opened per-project
// stores backing it. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	dataRoot string
	projects map[string]*models.Project
	stores   map[string]*store.Store
}

// NewManager creates (if necessary) dataRoot and loads any existing
// manifest found there.
func NewManager(dataRoot string) (*Manager, error) {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("project: create data root: %w", err)
	}
	m := &Manager{
		dataRoot: dataRoot,
		projects: make(map[string]*models.Project),
		stores:   make(map[string]*store.Store),
	}
	if err := m.loadManifest(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) manifestPath() string {
	return filepath.Join(m.dataRoot, "manifest.json")
}

func (m *Manager) loadManifest() error {
	data, err := os.ReadFile(m.manifestPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("project: read manifest: %w", err)
	}
	var entries []models.Project
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("project: parse manifest: %w", err)
	}
	for i := range entries {
		p := entries[i]
		m.projects[p.Name] = &p
	}
	return nil
}

// saveManifest must be called with m.mu held.
func (m *Manager) saveManifest() error {
	entries := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		entries = append(entries, *p)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("project: marshal manifest: %w", err)
	}
	if err := os.WriteFile(m.manifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("project: write manifest: %w", err)
	}
	return nil
}

// Create registers name as a new active project and opens its store.
func (m *Manager) Create(name string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if _, exists := m.projects[name]; exists {
		return nil, ErrAlreadyExists
	}

	dataPath := filepath.Join(m.dataRoot, name, "project.db")
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return nil, fmt.Errorf("project: create project dir: %w", err)
	}
	s, err := store.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("project: open store: %w", err)
	}

	p := &models.Project{
		Name: name, Status: models.ProjectActive, CreatedAt: time.Now().UTC(), DataPath: dataPath,
	}
	m.projects[name] = p
	m.stores[name] = s

	if err := m.saveManifest(); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// List returns every registered project, sorted by name.
func (m *Manager) List() []models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Activate flips an archived project back to active, clearing ArchivedAt so
// it is no longer a candidate for the cleanup service's archived-project purge.
func (m *Manager) Activate(name string) (*models.Project, error) {
	return m.setStatus(name, models.ProjectActive, false)
}

// Archive marks a project archived. Its store and data stay on disk;
// archiving only excludes it from the conversation routing a live UI
// defaults to, it does not delete anything. The cleanup service may purge
// it later, once ArchivedProjectRetentionDays has elapsed (pkg/cleanup).
func (m *Manager) Archive(name string) (*models.Project, error) {
	return m.setStatus(name, models.ProjectArchived, true)
}

func (m *Manager) setStatus(name string, status models.ProjectStatus, archiving bool) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[name]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	if archiving {
		now := time.Now().UTC()
		p.ArchivedAt = &now
	} else {
		p.ArchivedAt = nil
	}
	if err := m.saveManifest(); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// PurgeArchivedBefore deletes every archived project whose ArchivedAt
// predates cutoff: it closes the project's store if open, removes its
// on-disk directory, and drops it from the manifest. Returns the number of
// projects purged.
func (m *Manager) PurgeArchivedBefore(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for name, p := range m.projects {
		if p.Status != models.ProjectArchived || p.ArchivedAt == nil || p.ArchivedAt.After(cutoff) {
			continue
		}
		if s, ok := m.stores[name]; ok {
			_ = s.Close()
			delete(m.stores, name)
		}
		if err := os.RemoveAll(filepath.Dir(p.DataPath)); err != nil {
			return purged, fmt.Errorf("project: purge %s: %w", name, err)
		}
		delete(m.projects, name)
		purged++
	}
	if purged > 0 {
		if err := m.saveManifest(); err != nil {
			return purged, err
		}
	}
	return purged, nil
}

// Get returns the project record and its store, opening the store lazily
// if this process hasn't touched it yet (e.g. just restarted and the
// manifest named it but nothing opened it since).
func (m *Manager) Get(name string) (*models.Project, *store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[name]
	if !ok {
		return nil, nil, ErrNotFound
	}
	s, ok := m.stores[name]
	if !ok {
		var err error
		s, err = store.Open(p.DataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("project: open store: %w", err)
		}
		m.stores[name] = s
	}
	cp := *p
	return &cp, s, nil
}

// Close closes every store this Manager has opened. Call during graceful shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
