package versioning

import (
	"context"
	"log/slog"
	"time"
)

// RetentionSweeper periodically deletes audit events past the configured
// retention window. It runs inside the server process; deletion is
// idempotent, so overlapping sweeps from multiple replicas are safe.
type RetentionSweeper struct {
	audit    *AuditStore
	cfg      *Config
	logger   *slog.Logger
	interval time.Duration
}

// NewRetentionSweeper creates a sweeper over the service's audit store.
// A non-positive interval defaults to 24 hours.
func NewRetentionSweeper(svc *Service, interval time.Duration) *RetentionSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionSweeper{
		audit:    svc.audit,
		cfg:      svc.cfg,
		logger:   svc.logger,
		interval: interval,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
// A zero or negative retention window disables the sweeper.
func (s *RetentionSweeper) Run(ctx context.Context) {
	if s.cfg.AuditRetentionDays <= 0 {
		s.logger.Info("audit retention sweeper disabled")
		return
	}

	s.logger.Info("audit retention sweeper starting",
		"retentionDays", s.cfg.AuditRetentionDays,
		"interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("audit retention sweeper stopped")
			return
		case <-ticker.C:
			if deleted, err := s.SweepOnce(); err != nil {
				s.logger.Error("audit retention sweep failed", "error", err)
			} else if deleted > 0 {
				s.logger.Info("audit retention sweep", "deleted", deleted)
			}
		}
	}
}

// SweepOnce deletes audit events older than the retention window and
// returns the number of deleted records.
func (s *RetentionSweeper) SweepOnce() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.AuditRetentionDays)
	return s.audit.DeleteOlderThan(cutoff)
}
