package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/google/uuid"
)

// AuditEventStore defines the persistence surface the audit service needs
type AuditEventStore interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	Recent(ctx context.Context, limit int, filters repositories.AuditFilters) ([]*models.AuditEvent, error)
	ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditEvent, error)
	FailedLoginsSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error)
	SuspiciousSince(ctx context.Context, since time.Time, limit int) ([]*models.AuditEvent, error)
}

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500

	persistTimeout = 5 * time.Second
)

// AuditService is the single sink for security audit events and the query
// surface over them. Log follows the dual-write pattern (slog + database);
// the database write is fire-and-forget so a slow or failed persist can never
// delay or fail the security decision being recorded.
type AuditService struct {
	store  AuditEventStore
	logger *slog.Logger
	now    func() time.Time

	// persisted is signalled after each async write settles. Tests hook it;
	// production leaves it nil.
	persisted chan struct{}
}

// NewAuditService creates a new AuditService
func NewAuditService(store AuditEventStore, logger *slog.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Log records an audit event. It never returns an error and never blocks on
// the database: the slog line is written synchronously, then persistence
// happens in a detached goroutine with its own timeout. Failures to persist
// are logged locally and swallowed.
func (s *AuditService) Log(ctx context.Context, event *models.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	level := slog.LevelInfo
	switch event.Severity {
	case models.SeverityHigh:
		level = slog.LevelWarn
	case models.SeverityCritical:
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "audit event",
		slog.String("event_type", event.EventType),
		slog.String("severity", event.Severity),
		slog.Any("user_id", event.UserID),
		slog.String("ip_address", event.IPAddress),
		slog.Any("details", event.Details),
	)

	go func() {
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()

		if err := s.store.Create(persistCtx, event); err != nil {
			s.logger.Error("failed to persist audit event",
				slog.String("event_type", event.EventType),
				slog.Any("error", err),
			)
		}
		if s.persisted != nil {
			s.persisted <- struct{}{}
		}
	}()
}

// Recent returns the newest events, optionally filtered by event type and
// severity, ordered newest first.
func (s *AuditService) Recent(ctx context.Context, limit int, filters repositories.AuditFilters) ([]*models.AuditEvent, error) {
	events, err := s.store.Recent(ctx, clampLimit(limit), filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent audit events: %w", err)
	}
	return events, nil
}

// ByUser returns the newest events for one user.
func (s *AuditService) ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	events, err := s.store.ByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get user audit trail: %w", err)
	}
	return events, nil
}

// FailedLogins returns LOGIN_FAILED events within the trailing window.
func (s *AuditService) FailedLogins(ctx context.Context, window time.Duration) ([]*models.AuditEvent, error) {
	events, err := s.store.FailedLoginsSince(ctx, s.now().Add(-window), maxQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed logins: %w", err)
	}
	return events, nil
}

// Suspicious returns HIGH and CRITICAL events within the trailing window.
func (s *AuditService) Suspicious(ctx context.Context, window time.Duration) ([]*models.AuditEvent, error) {
	events, err := s.store.SuspiciousSince(ctx, s.now().Add(-window), maxQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get suspicious events: %w", err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}
