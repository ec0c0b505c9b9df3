// Package cleanup provides the interview retention background service.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/candidflow/interviewer/pkg/config"
)

// InterviewPurger deletes terminal interviews older than cutoff,
// returning the number of interviews removed. Satisfied by
// *postgres.InterviewRepository; declared here (not in pkg/ports)
// because no orchestrator/pipeline path needs this capability.
type InterviewPurger interface {
	PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service periodically deletes COMPLETE/CANCELLED interviews past the
// configured retention window. Dependent answers, evaluations, and
// follow-up questions cascade-delete with their parent interview row
// (spec §9's retention note; teacher's orphaned-event cleanup has no
// equivalent here since ON DELETE CASCADE makes orphan rows
// impossible). All operations are idempotent and safe to run from
// multiple processes.
type Service struct {
	config  config.RetentionConfig
	purger  InterviewPurger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg config.RetentionConfig, purger InterviewPurger) *Service {
	return &Service{config: cfg, purger: purger}
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
		"interview_retention_days", s.config.InterviewRetentionDays,
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
	cutoff := time.Now().Add(-time.Duration(s.config.InterviewRetentionDays) * 24 * time.Hour)
	count, err := s.purger.PurgeTerminalBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention: purge terminal interviews failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged old interviews", "count", count)
	}
}
