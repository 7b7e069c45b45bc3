package security

import (
	"sync"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
)

// IPBlocklist is a TTL-bound set of blocked origin addresses. Expiry is
// enforced lazily on read by comparing against the stored deadline, so
// correctness never depends on a sweep or timer firing on schedule. Sweep
// exists purely to reclaim memory.
type IPBlocklist struct {
	mu      sync.Mutex
	blocked map[string]time.Time
	now     func() time.Time
}

// NewIPBlocklist creates an empty blocklist.
func NewIPBlocklist() *IPBlocklist {
	return &IPBlocklist{
		blocked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Block inserts or re-blocks an IP for the given duration. Re-blocking an
// already-blocked address resets its expiry to now + duration.
func (b *IPBlocklist) Block(ip string, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked[ip] = b.now().Add(duration)
}

// Unblock removes an IP immediately.
func (b *IPBlocklist) Unblock(ip string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blocked, ip)
}

// IsBlocked reports whether the IP is currently blocked. A stale entry whose
// deadline has passed reads as unblocked and is evicted on the spot.
func (b *IPBlocklist) IsBlocked(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.blocked[ip]
	if !ok {
		return false
	}
	if b.now().After(expiresAt) {
		delete(b.blocked, ip)
		return false
	}
	return true
}

// Snapshot returns the currently active blocks, skipping entries whose
// deadline has already passed.
func (b *IPBlocklist) Snapshot() []models.BlockedOrigin {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	out := make([]models.BlockedOrigin, 0, len(b.blocked))
	for ip, expiresAt := range b.blocked {
		if now.After(expiresAt) {
			continue
		}
		out = append(out, models.BlockedOrigin{IP: ip, ExpiresAt: expiresAt})
	}
	return out
}

// Sweep evicts every expired entry and returns the number removed.
func (b *IPBlocklist) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for ip, expiresAt := range b.blocked {
		if now.After(expiresAt) {
			delete(b.blocked, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (b *IPBlocklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocked)
}
