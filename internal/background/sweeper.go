package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/finchworks/gatehouse/internal/security"
)

// Sweeper periodically evicts expired blocklist entries and prunes audit
// events past retention. Both are housekeeping: blocklist correctness comes
// from the lazy expiry check on read, and the sweep only reclaims memory.
type Sweeper struct {
	blocklist     *security.IPBlocklist
	auditRepo     *repositories.AuditEventRepository
	logger        *slog.Logger
	interval      time.Duration
	retentionDays int
	stopCh        chan struct{}
}

// NewSweeper creates a new Sweeper
func NewSweeper(
	blocklist *security.IPBlocklist,
	auditRepo *repositories.AuditEventRepository,
	logger *slog.Logger,
	interval time.Duration,
	retentionDays int,
) *Sweeper {
	return &Sweeper{
		blocklist:     blocklist,
		auditRepo:     auditRepo,
		logger:        logger,
		interval:      interval,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopCh:
			s.logger.Info("sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sweeper context cancelled")
			return
		}
	}
}

func (s *Sweeper) runSweep(ctx context.Context) {
	if evicted := s.blocklist.Sweep(); evicted > 0 {
		s.logger.Info("evicted expired IP blocks", slog.Int("count", evicted))
	}

	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := s.auditRepo.Cleanup(sweepCtx, s.retentionDays)
	if err != nil {
		s.logger.Error("failed to prune audit events", slog.Any("error", err))
		return
	}
	if rowsDeleted > 0 {
		s.logger.Info("pruned audit events past retention", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
