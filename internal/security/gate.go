package security

import (
	"context"

	"github.com/finchworks/gatehouse/internal/models"
)

// RateLimitGate is the pre-auth admission predicate sitting on the hot path
// of every inbound request. The common not-blocked case is a single map
// lookup with no allocations; only the rejection path builds an audit event.
type RateLimitGate struct {
	blocklist *IPBlocklist
	audit     AuditSink
}

// NewRateLimitGate creates a new RateLimitGate.
func NewRateLimitGate(blocklist *IPBlocklist, audit AuditSink) *RateLimitGate {
	return &RateLimitGate{blocklist: blocklist, audit: audit}
}

// Admit reports whether a request from the origin may proceed. A blocked
// origin is rejected regardless of which account triggered the block, and the
// rejection is mirrored into the audit trail as IP_BLOCKED.
func (g *RateLimitGate) Admit(ctx context.Context, meta RequestMeta) bool {
	if !g.blocklist.IsBlocked(meta.IPAddress) {
		return true
	}

	g.audit.Log(ctx, meta.Event(models.EventIPBlocked, models.SeverityHigh, nil))
	return false
}
