package models

import "time"

// AttemptRecord tracks consecutive login failures for one
// (normalized email, origin IP) pair. Records live only for the process
// lifetime; a restart clears them.
type AttemptRecord struct {
	FailureCount    int
	WindowStartedAt time.Time
}

// AttemptOutcome is the result of recording a login attempt.
// Escalated is true exactly once per accumulation cycle: on the failure that
// brings the count to the configured threshold. The caller owns the follow-up
// (account lock + IP block).
type AttemptOutcome struct {
	Escalated    bool
	CurrentCount int
}

// BlockedOrigin is an IP address under a temporary block. The block applies
// to every request from the address regardless of which account triggered it.
type BlockedOrigin struct {
	IP        string
	ExpiresAt time.Time
}
