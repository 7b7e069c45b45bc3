package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the slice of the HR application's employee entity this service
// reads and mutates: lock state and session activity. The rest of the
// employee record belongs to the HR app.
type Employee struct {
	ID             uuid.UUID  `db:"id"`
	Email          string     `db:"email"`
	Role           string     `db:"role"`
	IsLocked       bool       `db:"is_locked"`
	LockedAt       *time.Time `db:"locked_at"`
	LastActivityAt *time.Time `db:"last_activity_at"`
}

// LockState is the lock flag pair owned by the employee record. It is set to
// locked only by the account lock policy and cleared only by an explicit
// unlock; elapsed time never clears it.
type LockState struct {
	IsLocked bool       `db:"is_locked"`
	LockedAt *time.Time `db:"locked_at"`
}
