package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoria/auth/internal/models"
)

func TestLockoutPolicy_EvaluateUnlocked(t *testing.T) {
	policy := NewLockoutPolicy(5, 30*time.Minute)
	now := time.Now()

	_, blocked := policy.Evaluate(models.User{}, now)
	assert.False(t, blocked)

	past := now.Add(-time.Minute)
	_, blocked = policy.Evaluate(models.User{LockedUntil: &past}, now)
	assert.False(t, blocked, "expired lockout no longer blocks")
}

func TestLockoutPolicy_EvaluateBlockedRoundsUp(t *testing.T) {
	policy := NewLockoutPolicy(5, 30*time.Minute)
	now := time.Now()

	until := now.Add(28*time.Minute + 30*time.Second)
	retryAfter, blocked := policy.Evaluate(models.User{LockedUntil: &until}, now)

	require.True(t, blocked)
	assert.Equal(t, 29*time.Minute, retryAfter, "partial minutes round up")
}

func TestLockoutPolicy_FifthFailureLocks(t *testing.T) {
	policy := NewLockoutPolicy(5, 30*time.Minute)
	now := time.Now()

	user := models.User{}
	for i := 0; i < 4; i++ {
		user = policy.RecordFailure(user, now)
		assert.Nil(t, user.LockedUntil, "failure %d must not lock", i+1)
	}
	assert.Equal(t, 4, user.FailedLoginAttempts)
	assert.Equal(t, 1, policy.AttemptsRemaining(user))

	user = policy.RecordFailure(user, now)
	require.NotNil(t, user.LockedUntil)
	assert.Equal(t, now.Add(30*time.Minute), *user.LockedUntil)
}

func TestLockoutPolicy_SuccessResets(t *testing.T) {
	policy := NewLockoutPolicy(5, 30*time.Minute)
	now := time.Now()

	until := now.Add(-time.Minute)
	user := models.User{FailedLoginAttempts: 5, LockedUntil: &until}

	user = policy.RecordSuccess(user, now)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, now, *user.LastLoginAt)
}
