package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/finchworks/gatehouse/internal/security"
)

// PolicyStore persists the singleton security policy.
type PolicyStore interface {
	Get(ctx context.Context) (models.SecurityPolicy, error)
	Update(ctx context.Context, policy models.SecurityPolicy) error
}

// PolicyService owns the cache-and-invalidate discipline around the security
// policy: components receive the policy as an explicit parameter, and this
// service is the one place that reads the store. A failed read falls back to
// the built-in defaults — this subsystem gates authentication and must stay
// available even with a broken policy row.
type PolicyService struct {
	store  PolicyStore
	audit  security.AuditSink
	logger *slog.Logger

	mu     sync.RWMutex
	cached *models.SecurityPolicy
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(store PolicyStore, audit security.AuditSink, logger *slog.Logger) *PolicyService {
	return &PolicyService{
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

// Get returns the current policy, normalized. Served from cache after the
// first read until Update invalidates it.
func (s *PolicyService) Get(ctx context.Context) models.SecurityPolicy {
	s.mu.RLock()
	if s.cached != nil {
		policy := *s.cached
		s.mu.RUnlock()
		return policy
	}
	s.mu.RUnlock()

	policy, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Error("failed to load security policy, using defaults", slog.Any("error", err))
		return models.DefaultSecurityPolicy()
	}
	policy.Normalize()

	s.mu.Lock()
	s.cached = &policy
	s.mu.Unlock()

	return policy
}

// Update normalizes and persists a new policy, invalidates the cache, and
// emits SECURITY_SETTINGS_CHANGED.
func (s *PolicyService) Update(ctx context.Context, policy models.SecurityPolicy, meta security.RequestMeta) (models.SecurityPolicy, error) {
	policy.Normalize()

	if err := s.store.Update(ctx, policy); err != nil {
		return models.SecurityPolicy{}, fmt.Errorf("failed to update security policy: %w", err)
	}

	s.mu.Lock()
	s.cached = &policy
	s.mu.Unlock()

	s.audit.Log(ctx, meta.Event(models.EventSecuritySettingsChanged, models.SeverityMedium, models.EventDetails{
		"max_login_attempts":       policy.MaxLoginAttempts,
		"lockout_duration_minutes": policy.LockoutDurationMinutes,
		"session_timeout_minutes":  policy.SessionTimeoutMinutes,
	}))

	return policy, nil
}

// Invalidate drops the cached policy so the next Get re-reads the store.
func (s *PolicyService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
