package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrAccountInactive    = errors.New("account inactive")
	ErrEmailTaken         = errors.New("email already registered")
	ErrIdentityConflict   = errors.New("identity linked to another account")
)

// CredentialsError is a failed credential check against a known account.
// Remaining carries how many attempts are left before lockout; the message
// is identical to the unknown-account case so accounts cannot be
// enumerated.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	return "invalid credentials"
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// LockedError reports a login blocked by the lockout policy. RetryAfter is
// already rounded up to whole minutes; the exact unlock timestamp and the
// internal counter are not exposed.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d minutes", int(e.RetryAfter.Minutes()))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
