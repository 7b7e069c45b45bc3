package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit event types
const (
	EventLoginSuccess            = "LOGIN_SUCCESS"
	EventLoginFailed             = "LOGIN_FAILED"
	EventLogout                  = "LOGOUT"
	EventPasswordChanged         = "PASSWORD_CHANGED"
	EventPasswordReset           = "PASSWORD_RESET"
	EventAccountLocked           = "ACCOUNT_LOCKED"
	EventAccountUnlocked         = "ACCOUNT_UNLOCKED"
	EventSecuritySettingsChanged = "SECURITY_SETTINGS_CHANGED"
	EventAdminAction             = "ADMIN_ACTION"
	EventSuspiciousActivity      = "SUSPICIOUS_ACTIVITY"
	EventIPBlocked               = "IP_BLOCKED"
	EventSessionExpired          = "SESSION_EXPIRED"
	EventForceLogout             = "FORCE_LOGOUT"
)

// Severity levels
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// AuditEvent is an immutable record of a security-relevant occurrence.
// Events are append-only: nothing in this service updates or deletes them
// once written. Ordering for query purposes is created_at, with the serial
// id breaking ties in insertion order.
type AuditEvent struct {
	ID            int64        `db:"id"`
	EventType     string       `db:"event_type"`
	Severity      string       `db:"severity"`
	UserID        *uuid.UUID   `db:"user_id"`
	UserEmail     *string      `db:"user_email"`
	IPAddress     string       `db:"ip_address"`
	UserAgent     *string      `db:"user_agent"`
	RequestMethod *string      `db:"request_method"`
	RequestURL    *string      `db:"request_url"`
	Details       EventDetails `db:"details"`
	CreatedAt     time.Time    `db:"created_at"`
}

// EventDetails holds additional context for audit events
type EventDetails map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (d *EventDetails) Scan(value interface{}) error {
	if value == nil {
		*d = make(EventDetails)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*d = EventDetails(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (d EventDetails) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// MarshalJSON implements json.Marshaler
func (d EventDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(d))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *EventDetails) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = EventDetails(m)
	return nil
}

// ValidEventType reports whether t is one of the known audit event types.
func ValidEventType(t string) bool {
	switch t {
	case EventLoginSuccess, EventLoginFailed, EventLogout,
		EventPasswordChanged, EventPasswordReset,
		EventAccountLocked, EventAccountUnlocked,
		EventSecuritySettingsChanged, EventAdminAction,
		EventSuspiciousActivity, EventIPBlocked,
		EventSessionExpired, EventForceLogout:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the known severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
