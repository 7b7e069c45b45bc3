package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/security"
	"github.com/finchworks/gatehouse/pkg/logger"
	"github.com/google/uuid"
)

// EmployeeResolver maps a login email to the employee record, so escalation
// can flip the lock flag on the right account.
type EmployeeResolver interface {
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
}

// DefenseService drives the escalation chain for login attempts: record in
// the tracker, and on threshold crossing lock the account and block the
// origin IP. The tracker returns Escalated at most once per accumulation
// cycle and both side effects are idempotent, so concurrent attempts on the
// same key cannot corrupt lock state.
type DefenseService struct {
	tracker   *security.AttemptTracker
	blocklist *security.IPBlocklist
	lockout   *security.AccountLockPolicy
	employees EmployeeResolver
	alerts    *AlertService
	logger    *slog.Logger
}

// NewDefenseService creates a new DefenseService. alerts may be nil when
// outbound alerting is disabled.
func NewDefenseService(
	tracker *security.AttemptTracker,
	blocklist *security.IPBlocklist,
	lockout *security.AccountLockPolicy,
	employees EmployeeResolver,
	alerts *AlertService,
	logger *slog.Logger,
) *DefenseService {
	return &DefenseService{
		tracker:   tracker,
		blocklist: blocklist,
		lockout:   lockout,
		employees: employees,
		alerts:    alerts,
		logger:    logger,
	}
}

// AttemptResult is returned to the login flow after recording an attempt.
// AccountLocked is deliberately distinguishable from invalid credentials at
// the boundary.
type AttemptResult struct {
	Escalated     bool
	CurrentCount  int
	AccountLocked bool
}

// RecordAttempt records a login outcome and performs escalation when the
// failure count reaches the policy threshold.
func (s *DefenseService) RecordAttempt(ctx context.Context, meta security.RequestMeta, success bool, policy models.SecurityPolicy) (AttemptResult, error) {
	// Correct credentials do not clear a lock: a locked account refuses the
	// login outright and the failure counter stays untouched.
	if success {
		locked, err := s.accountLocked(ctx, meta.Email)
		if err == nil && locked {
			return AttemptResult{AccountLocked: true}, models.ErrAccountLocked
		}
	}

	outcome := s.tracker.RecordAttempt(ctx, meta, success, policy)

	result := AttemptResult{
		Escalated:    outcome.Escalated,
		CurrentCount: outcome.CurrentCount,
	}

	if !outcome.Escalated {
		if !success {
			locked, err := s.accountLocked(ctx, meta.Email)
			if err == nil {
				result.AccountLocked = locked
			}
		}
		return result, nil
	}

	// Threshold crossed: block the origin for the configured duration and
	// lock the account. The IP block expires on its own; the account lock
	// does not.
	s.blocklist.Block(meta.IPAddress, policy.LockoutDuration())

	reason := fmt.Sprintf("%d consecutive failed login attempts", outcome.CurrentCount)

	employee, err := s.employees.GetByEmail(ctx, meta.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown account: the IP block still stands, there is just no
			// lock flag to flip.
			s.logger.Warn("escalation for unknown account",
				slog.String("email", logger.SanitizedEmail(meta.Email)),
				slog.String("ip_address", meta.IPAddress))
			return result, nil
		}
		return result, fmt.Errorf("failed to resolve employee for escalation: %w", err)
	}

	if err := s.lockout.Lock(ctx, employee.ID, meta, reason); err != nil {
		// The IP block above still stands, but the account could not be
		// locked. That is a degraded defense posture worth paging on.
		if s.alerts != nil {
			s.alerts.DegradedMode(ctx, "account lockout", err.Error())
		}
		return result, err
	}
	result.AccountLocked = true

	if s.alerts != nil {
		s.alerts.AccountLocked(ctx, meta.Email, meta.IPAddress, reason)
	}

	return result, nil
}

// AccountLockedByID reports the lock flag for a known employee.
func (s *DefenseService) AccountLockedByID(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	return s.lockout.IsLocked(ctx, employeeID)
}

func (s *DefenseService) accountLocked(ctx context.Context, email string) (bool, error) {
	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return employee.IsLocked, nil
}
