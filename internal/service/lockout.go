package service

import (
	"time"

	"tutoria/auth/internal/models"
)

// LockoutPolicy decides when repeated login failures block an account.
// Expiry is lazy: a past LockedUntil simply stops blocking, nothing sweeps
// it.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func NewLockoutPolicy(maxAttempts int, duration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, Duration: duration}
}

// Evaluate reports whether user is currently blocked and, if so, for how
// long. The duration is rounded up to whole minutes for user messaging.
func (p LockoutPolicy) Evaluate(user models.User, now time.Time) (time.Duration, bool) {
	if user.LockedUntil == nil || !user.LockedUntil.After(now) {
		return 0, false
	}
	return roundUpToMinute(user.LockedUntil.Sub(now)), true
}

// RecordFailure returns the account state after one more failed attempt.
// Reaching MaxAttempts sets the lockout expiry.
func (p LockoutPolicy) RecordFailure(user models.User, now time.Time) models.User {
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		user.LockedUntil = &until
	}
	return user
}

// RecordSuccess resets the failure counter, clears any lockout and stamps
// the login time.
func (p LockoutPolicy) RecordSuccess(user models.User, now time.Time) models.User {
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return user
}

// AttemptsRemaining is how many more failures user can incur before
// lockout.
func (p LockoutPolicy) AttemptsRemaining(user models.User) int {
	remaining := p.MaxAttempts - user.FailedLoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

func roundUpToMinute(d time.Duration) time.Duration {
	minutes := d / time.Minute
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes * time.Minute
}
