// Package cleanup provides the background data retention service: purging
// old finished workflow runs from every project's store and purging
// archived projects whose retention window has elapsed.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/config"
	"github.com/codeready-toolchain/nurseresearch/pkg/project"
)

// Service periodically enforces the retention policies in
// config.RetentionConfig:
//   - Deletes finished workflow runs (and their steps/outputs) older than
//     WorkflowRunRetentionDays, from every project's store.
//   - Deletes archived projects older than ArchivedProjectRetentionDays.
//
// Both operations are idempotent and safe to run repeatedly.
type Service struct {
	config   *config.RetentionConfig
	projects *project.Manager

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, projects *project.Manager) *Service {
	return &Service{config: cfg, projects: projects}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"workflow_run_retention_days", s.config.WorkflowRunRetentionDays,
		"archived_project_retention_days", s.config.ArchivedProjectRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeOldWorkflowRuns(ctx)
	s.purgeOldArchivedProjects()
}

func (s *Service) purgeOldWorkflowRuns(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.WorkflowRunRetentionDays)
	total := int64(0)
	for _, p := range s.projects.List() {
		_, st, err := s.projects.Get(p.Name)
		if err != nil {
			slog.Error("retention: open project store failed", "project", p.Name, "error", err)
			continue
		}
		count, err := st.DeleteFinishedRunsBefore(ctx, cutoff)
		if err != nil {
			slog.Error("retention: purge workflow runs failed", "project", p.Name, "error", err)
			continue
		}
		total += count
	}
	if total > 0 {
		slog.Info("retention: purged old workflow runs", "count", total)
	}
}

func (s *Service) purgeOldArchivedProjects() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.ArchivedProjectRetentionDays)
	purged, err := s.projects.PurgeArchivedBefore(cutoff)
	if err != nil {
		slog.Error("retention: purge archived projects failed", "error", err)
		return
	}
	if purged > 0 {
		slog.Info("retention: purged archived projects", "count", purged)
	}
}
