package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/google/uuid"
)

// LockStore is the slice of the employee store this component mutates.
type LockStore interface {
	GetLockState(ctx context.Context, employeeID uuid.UUID) (models.LockState, error)
	SetLockState(ctx context.Context, employeeID uuid.UUID, state models.LockState) error
}

// AccountLockPolicy flips the persistent lock flag on employee records.
// Locking is idempotent and the lock never expires on its own: the lockout
// duration governs only the IP-block side, while accounts stay locked until
// an explicit unlock. Re-locking an already-locked account still records an
// audit event for forensic completeness but does not overwrite locked_at.
type AccountLockPolicy struct {
	store  LockStore
	audit  AuditSink
	logger *slog.Logger
	now    func() time.Time
}

// NewAccountLockPolicy creates a new AccountLockPolicy.
func NewAccountLockPolicy(store LockStore, audit AuditSink, logger *slog.Logger) *AccountLockPolicy {
	return &AccountLockPolicy{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Lock sets the employee's lock flag. Safe to call concurrently for the same
// employee: the first caller wins and later callers are no-ops apart from the
// audit trail.
func (p *AccountLockPolicy) Lock(ctx context.Context, employeeID uuid.UUID, meta RequestMeta, reason string) error {
	state, err := p.store.GetLockState(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to read lock state: %w", err)
	}

	alreadyLocked := state.IsLocked
	if !alreadyLocked {
		lockedAt := p.now()
		if err := p.store.SetLockState(ctx, employeeID, models.LockState{
			IsLocked: true,
			LockedAt: &lockedAt,
		}); err != nil {
			return fmt.Errorf("failed to set lock state: %w", err)
		}
	}

	meta.UserID = &employeeID
	p.audit.Log(ctx, meta.Event(models.EventAccountLocked, models.SeverityHigh, models.EventDetails{
		"reason":         reason,
		"already_locked": alreadyLocked,
	}))

	if !alreadyLocked {
		p.logger.Warn("account locked",
			slog.String("employee_id", employeeID.String()),
			slog.String("reason", reason))
	}
	return nil
}

// Unlock clears the lock flag. Administrative/reset flows only; nothing in
// this service calls it on a timer.
func (p *AccountLockPolicy) Unlock(ctx context.Context, employeeID uuid.UUID, meta RequestMeta) error {
	if err := p.store.SetLockState(ctx, employeeID, models.LockState{}); err != nil {
		return fmt.Errorf("failed to clear lock state: %w", err)
	}

	meta.UserID = &employeeID
	p.audit.Log(ctx, meta.Event(models.EventAccountUnlocked, models.SeverityMedium, nil))

	p.logger.Info("account unlocked", slog.String("employee_id", employeeID.String()))
	return nil
}

// IsLocked reports the current lock flag for an employee.
func (p *AccountLockPolicy) IsLocked(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	state, err := p.store.GetLockState(ctx, employeeID)
	if err != nil {
		return false, fmt.Errorf("failed to read lock state: %w", err)
	}
	return state.IsLocked, nil
}
