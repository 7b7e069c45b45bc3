package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time forward without sleeping
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestBlocklist() (*IPBlocklist, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := NewIPBlocklist()
	b.now = clock.now
	return b, clock
}

func TestIPBlocklist_BlockAndExpire(t *testing.T) {
	b, clock := newTestBlocklist()

	b.Block("1.2.3.4", 15*time.Minute)
	assert.True(t, b.IsBlocked("1.2.3.4"))
	assert.False(t, b.IsBlocked("5.6.7.8"))

	clock.advance(15*time.Minute + time.Second)
	assert.False(t, b.IsBlocked("1.2.3.4"))
}

func TestIPBlocklist_ExactDeadlineStillBlocked(t *testing.T) {
	b, clock := newTestBlocklist()

	b.Block("1.2.3.4", 15*time.Minute)
	clock.advance(15 * time.Minute)
	assert.True(t, b.IsBlocked("1.2.3.4"))
}

func TestIPBlocklist_LazyEvictionOnRead(t *testing.T) {
	b, clock := newTestBlocklist()

	b.Block("1.2.3.4", time.Minute)
	assert.Equal(t, 1, b.Len())

	// No sweep ran, but the expired entry reads as unblocked and is evicted
	clock.advance(2 * time.Minute)
	assert.False(t, b.IsBlocked("1.2.3.4"))
	assert.Equal(t, 0, b.Len())
}

func TestIPBlocklist_ReblockResetsExpiry(t *testing.T) {
	b, clock := newTestBlocklist()

	b.Block("1.2.3.4", 10*time.Minute)
	clock.advance(9 * time.Minute)
	b.Block("1.2.3.4", 10*time.Minute)

	// Past the original deadline but within the renewed one
	clock.advance(5 * time.Minute)
	assert.True(t, b.IsBlocked("1.2.3.4"))
}

func TestIPBlocklist_Unblock(t *testing.T) {
	b, _ := newTestBlocklist()

	b.Block("1.2.3.4", time.Hour)
	b.Unblock("1.2.3.4")
	assert.False(t, b.IsBlocked("1.2.3.4"))

	// Unblocking an unknown IP is a no-op
	b.Unblock("5.6.7.8")
}

func TestIPBlocklist_Sweep(t *testing.T) {
	b, clock := newTestBlocklist()

	b.Block("1.1.1.1", time.Minute)
	b.Block("2.2.2.2", time.Minute)
	b.Block("3.3.3.3", time.Hour)

	clock.advance(2 * time.Minute)

	assert.Equal(t, 2, b.Sweep())
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.IsBlocked("3.3.3.3"))
}
