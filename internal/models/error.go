package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Security outcomes surfaced to the login/session flows
	ErrAccountLocked  = errors.New("account is locked")
	ErrRateLimited    = errors.New("origin address is blocked")
	ErrSessionExpired = errors.New("session has expired")
)
