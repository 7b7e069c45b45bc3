package models

import "time"

// Bounds applied to SecurityPolicy numeric fields. Values outside these
// ranges are clamped at load time rather than rejected: this subsystem gates
// authentication and must come up with a usable policy even when the stored
// configuration is malformed.
const (
	MinMaxLoginAttempts = 1
	MaxMaxLoginAttempts = 20

	MinLockoutMinutes = 1
	MaxLockoutMinutes = 1440

	MinSessionTimeoutMinutes = 1
	MaxSessionTimeoutMinutes = 1440

	MinPasswordLengthFloor   = 4
	MinPasswordLengthCeiling = 128
)

// SecurityPolicy is the singleton security configuration. It is owned by the
// policy store; components receive it as an explicit parameter on each call
// rather than reading a process-wide singleton.
type SecurityPolicy struct {
	MaxLoginAttempts       int  `db:"max_login_attempts" json:"max_login_attempts"`
	LockoutDurationMinutes int  `db:"lockout_duration_minutes" json:"lockout_duration_minutes"`
	SessionTimeoutMinutes  int  `db:"session_timeout_minutes" json:"session_timeout_minutes"`
	RequireStrongPasswords bool `db:"require_strong_passwords" json:"require_strong_passwords"`
	MinPasswordLength      int  `db:"min_password_length" json:"min_password_length"`
	RequireUppercase       bool `db:"require_uppercase" json:"require_uppercase"`
	RequireLowercase       bool `db:"require_lowercase" json:"require_lowercase"`
	RequireNumbers         bool `db:"require_numbers" json:"require_numbers"`
	RequireSpecialChars    bool `db:"require_special_chars" json:"require_special_chars"`
}

// DefaultSecurityPolicy returns the built-in fallback policy used when no
// persisted policy exists or the stored one cannot be read.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		MaxLoginAttempts:       5,
		LockoutDurationMinutes: 15,
		SessionTimeoutMinutes:  30,
		RequireStrongPasswords: true,
		MinPasswordLength:      8,
		RequireUppercase:       true,
		RequireLowercase:       true,
		RequireNumbers:         true,
		RequireSpecialChars:    true,
	}
}

// Normalize clamps all numeric fields into their sane ranges.
func (p *SecurityPolicy) Normalize() {
	p.MaxLoginAttempts = clamp(p.MaxLoginAttempts, MinMaxLoginAttempts, MaxMaxLoginAttempts)
	p.LockoutDurationMinutes = clamp(p.LockoutDurationMinutes, MinLockoutMinutes, MaxLockoutMinutes)
	p.SessionTimeoutMinutes = clamp(p.SessionTimeoutMinutes, MinSessionTimeoutMinutes, MaxSessionTimeoutMinutes)
	p.MinPasswordLength = clamp(p.MinPasswordLength, MinPasswordLengthFloor, MinPasswordLengthCeiling)
}

// LockoutDuration returns the IP-block TTL as a time.Duration.
func (p SecurityPolicy) LockoutDuration() time.Duration {
	return time.Duration(p.LockoutDurationMinutes) * time.Minute
}

// SessionTimeout returns the idle-session limit as a time.Duration.
func (p SecurityPolicy) SessionTimeout() time.Duration {
	return time.Duration(p.SessionTimeoutMinutes) * time.Minute
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
