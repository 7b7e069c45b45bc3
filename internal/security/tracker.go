package security

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
)

// AttemptTracker counts consecutive failed logins per
// (normalized email, origin IP) key. State is in-memory only and guarded by a
// single mutex; the map stays small and every operation is O(1).
//
// There is no time-based decay: the only reset paths are a successful login
// or an explicit clear. Counts survive past the escalation threshold so that
// continued hammering keeps raising HIGH-severity events, but Escalated fires
// only on the attempt that reaches the threshold exactly.
type AttemptTracker struct {
	mu       sync.Mutex
	attempts map[string]*models.AttemptRecord

	audit  AuditSink
	logger *slog.Logger
	now    func() time.Time
}

// NewAttemptTracker creates a new AttemptTracker.
func NewAttemptTracker(audit AuditSink, logger *slog.Logger) *AttemptTracker {
	return &AttemptTracker{
		attempts: make(map[string]*models.AttemptRecord),
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordAttempt records the outcome of a login attempt for the key derived
// from meta.Email and meta.IPAddress. On success the record is deleted and a
// LOGIN_SUCCESS event is emitted. On failure the count is incremented and a
// LOGIN_FAILED event is emitted, HIGH severity once the count has reached
// policy.MaxLoginAttempts and MEDIUM below it.
func (t *AttemptTracker) RecordAttempt(ctx context.Context, meta RequestMeta, success bool, policy models.SecurityPolicy) models.AttemptOutcome {
	key := attemptKey(meta.Email, meta.IPAddress)

	if success {
		t.mu.Lock()
		delete(t.attempts, key)
		t.mu.Unlock()

		t.audit.Log(ctx, meta.Event(models.EventLoginSuccess, models.SeverityLow, nil))
		return models.AttemptOutcome{}
	}

	t.mu.Lock()
	record, ok := t.attempts[key]
	if !ok {
		record = &models.AttemptRecord{WindowStartedAt: t.now()}
		t.attempts[key] = record
	}
	record.FailureCount++
	count := record.FailureCount
	t.mu.Unlock()

	severity := models.SeverityMedium
	if count >= policy.MaxLoginAttempts {
		severity = models.SeverityHigh
	}
	t.audit.Log(ctx, meta.Event(models.EventLoginFailed, severity, models.EventDetails{
		"failure_count": count,
	}))

	escalated := count == policy.MaxLoginAttempts
	if escalated {
		t.logger.Warn("failed login threshold reached",
			slog.String("ip_address", meta.IPAddress),
			slog.Int("failure_count", count))
	}

	return models.AttemptOutcome{Escalated: escalated, CurrentCount: count}
}

// Clear removes the attempt record for a key. Used by the explicit
// administrative reset path; success already clears inside RecordAttempt.
func (t *AttemptTracker) Clear(email, ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, attemptKey(email, ip))
}

// Count returns the current failure count for a key.
func (t *AttemptTracker) Count(email, ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if record, ok := t.attempts[attemptKey(email, ip)]; ok {
		return record.FailureCount
	}
	return 0
}

func attemptKey(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}
