package models_test

import (
	"testing"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSecurityPolicy(t *testing.T) {
	policy := models.DefaultSecurityPolicy()

	assert.Equal(t, 5, policy.MaxLoginAttempts)
	assert.Equal(t, 15, policy.LockoutDurationMinutes)
	assert.Equal(t, 30, policy.SessionTimeoutMinutes)
	assert.True(t, policy.RequireStrongPasswords)
	assert.Equal(t, 8, policy.MinPasswordLength)
}

func TestSecurityPolicy_NormalizeClampsLowValues(t *testing.T) {
	policy := models.SecurityPolicy{
		MaxLoginAttempts:       0,
		LockoutDurationMinutes: -5,
		SessionTimeoutMinutes:  0,
		MinPasswordLength:      1,
	}
	policy.Normalize()

	assert.Equal(t, models.MinMaxLoginAttempts, policy.MaxLoginAttempts)
	assert.Equal(t, models.MinLockoutMinutes, policy.LockoutDurationMinutes)
	assert.Equal(t, models.MinSessionTimeoutMinutes, policy.SessionTimeoutMinutes)
	assert.Equal(t, models.MinPasswordLengthFloor, policy.MinPasswordLength)
}

func TestSecurityPolicy_NormalizeClampsHighValues(t *testing.T) {
	policy := models.SecurityPolicy{
		MaxLoginAttempts:       1000,
		LockoutDurationMinutes: 100000,
		SessionTimeoutMinutes:  100000,
		MinPasswordLength:      4096,
	}
	policy.Normalize()

	assert.Equal(t, models.MaxMaxLoginAttempts, policy.MaxLoginAttempts)
	assert.Equal(t, models.MaxLockoutMinutes, policy.LockoutDurationMinutes)
	assert.Equal(t, models.MaxSessionTimeoutMinutes, policy.SessionTimeoutMinutes)
	assert.Equal(t, models.MinPasswordLengthCeiling, policy.MinPasswordLength)
}

func TestSecurityPolicy_NormalizeLeavesValidValues(t *testing.T) {
	policy := models.DefaultSecurityPolicy()
	policy.Normalize()
	assert.Equal(t, models.DefaultSecurityPolicy(), policy)
}

func TestSecurityPolicy_DurationHelpers(t *testing.T) {
	policy := models.SecurityPolicy{LockoutDurationMinutes: 15, SessionTimeoutMinutes: 30}
	assert.Equal(t, 15*time.Minute, policy.LockoutDuration())
	assert.Equal(t, 30*time.Minute, policy.SessionTimeout())
}
