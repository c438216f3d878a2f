// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/processstore"
)

// Service periodically enforces retention policy on the process store:
// process records (and their event logs) whose last update is older than
// the configured retention window are deleted, whatever their status.
//
// All operations are idempotent and safe to run repeatedly.
type Service struct {
	config *config.RetentionConfig
	store  processstore.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, store processstore.Store) *Service {
	return &Service{
		config: cfg,
		store:  store,
	}
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
		"process_retention_days", s.config.ProcessRetentionDays,
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

	s.deleteExpiredProcesses(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.deleteExpiredProcesses(ctx)
		}
	}
}

func (s *Service) deleteExpiredProcesses(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.ProcessRetentionDays)
	count, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: process cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: deleted expired processes", "count", count)
	}
}
