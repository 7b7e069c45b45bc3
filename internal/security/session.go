package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/google/uuid"
)

// ActivityStore persists the single moving last-activity timestamp per
// principal.
type ActivityStore interface {
	GetLastActivity(ctx context.Context, employeeID uuid.UUID) (*time.Time, error)
	SetLastActivity(ctx context.Context, employeeID uuid.UUID, ts time.Time) error
}

// SessionGuard enforces the idle-session timeout. It runs per authenticated
// request, independent of the login path. If the activity store is
// unavailable the guard fails open — availability wins over strict policy on
// infra failure — but the degraded decision is made visible through a
// SUSPICIOUS_ACTIVITY audit event.
type SessionGuard struct {
	store  ActivityStore
	audit  AuditSink
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionGuard creates a new SessionGuard.
func NewSessionGuard(store ActivityStore, audit AuditSink, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Expired reports whether a session with the given last activity has idled
// out under the policy. The boundary is strict: elapsed time equal to the
// timeout is still live.
func Expired(lastActivity time.Time, now time.Time, policy models.SecurityPolicy) bool {
	return now.Sub(lastActivity) > policy.SessionTimeout()
}

// CheckSession evaluates the employee's idle time against the policy. A
// missing last-activity timestamp counts as live (first request after
// provisioning). On expiry a SESSION_EXPIRED event is emitted and the caller
// must force re-authentication.
func (g *SessionGuard) CheckSession(ctx context.Context, employeeID uuid.UUID, meta RequestMeta, policy models.SecurityPolicy) bool {
	meta.UserID = &employeeID

	lastActivity, err := g.store.GetLastActivity(ctx, employeeID)
	if err != nil {
		g.logger.Error("activity store unavailable, session check failing open",
			slog.String("employee_id", employeeID.String()),
			slog.Any("error", err))
		g.audit.Log(ctx, meta.Event(models.EventSuspiciousActivity, models.SeverityHigh, models.EventDetails{
			"reason": "session guard degraded: activity store unavailable",
		}))
		return false
	}

	if lastActivity == nil {
		return false
	}

	if !Expired(*lastActivity, g.now(), policy) {
		return false
	}

	g.audit.Log(ctx, meta.Event(models.EventSessionExpired, models.SeverityMedium, models.EventDetails{
		"last_activity":           lastActivity.UTC().Format(time.RFC3339),
		"session_timeout_minutes": policy.SessionTimeoutMinutes,
	}))
	return true
}

// Touch slides the idle window forward for the employee and returns the new
// last-activity timestamp. Called on every successful authenticated request.
func (g *SessionGuard) Touch(ctx context.Context, employeeID uuid.UUID) (time.Time, error) {
	ts := g.now()
	if err := g.store.SetLastActivity(ctx, employeeID, ts); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
