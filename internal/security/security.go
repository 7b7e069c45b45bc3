// Package security holds the login-defense components: failed-attempt
// tracking, IP blocking, account lockout, session idle enforcement and the
// request-admission gate. All shared state lives in explicit owned stores
// guarded by mutexes; nothing here is a process-wide singleton, and policy is
// passed into each call by the owner of the cached configuration.
package security

import (
	"context"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/google/uuid"
)

// AuditSink receives security audit events. Implementations must be
// fire-and-forget: a slow or failing sink must never delay or fail the
// security decision that produced the event.
type AuditSink interface {
	Log(ctx context.Context, event *models.AuditEvent)
}

// RequestMeta carries the request-context strings the HTTP layer supplies,
// passed through opaquely into audit events.
type RequestMeta struct {
	UserID        *uuid.UUID
	Email         string
	IPAddress     string
	UserAgent     string
	RequestMethod string
	RequestURL    string
}

func (m RequestMeta) Event(eventType, severity string, details models.EventDetails) *models.AuditEvent {
	event := &models.AuditEvent{
		EventType: eventType,
		Severity:  severity,
		UserID:    m.UserID,
		IPAddress: m.IPAddress,
		Details:   details,
	}
	if m.Email != "" {
		email := m.Email
		event.UserEmail = &email
	}
	if m.UserAgent != "" {
		ua := m.UserAgent
		event.UserAgent = &ua
	}
	if m.RequestMethod != "" {
		method := m.RequestMethod
		event.RequestMethod = &method
	}
	if m.RequestURL != "" {
		url := m.RequestURL
		event.RequestURL = &url
	}
	return event
}
