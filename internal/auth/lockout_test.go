// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opsboard/opsboard/internal/auth"
)

func TestLockoutPolicy_IsLocked(t *testing.T) {
	policy := auth.DefaultLockoutPolicy()
	now := time.Now()

	tests := []struct {
		name      string
		lockUntil *time.Time
		want      bool
	}{
		{"no lock", nil, false},
		{"future lock", timePtr(now.Add(time.Minute)), true},
		{"elapsed lock", timePtr(now.Add(-time.Minute)), false},
		{"boundary is unlocked", timePtr(now), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsLocked(tt.lockUntil, now))
		})
	}
}

func TestLockoutPolicy_OnFailure(t *testing.T) {
	policy := auth.LockoutPolicy{MaxFailedAttempts: 3, LockDuration: 10 * time.Minute}
	now := time.Now()

	attempts, lockUntil := policy.OnFailure(0, now)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, lockUntil)

	attempts, lockUntil = policy.OnFailure(1, now)
	assert.Equal(t, 2, attempts)
	assert.Nil(t, lockUntil)

	// The attempt that reaches the threshold engages the lock.
	attempts, lockUntil = policy.OnFailure(2, now)
	assert.Equal(t, 3, attempts)
	if assert.NotNil(t, lockUntil) {
		assert.Equal(t, now.Add(10*time.Minute), *lockUntil)
	}

	// Past the threshold the window restarts.
	attempts, lockUntil = policy.OnFailure(3, now)
	assert.Equal(t, 4, attempts)
	assert.NotNil(t, lockUntil)
}

func TestLockoutPolicy_OnSuccess(t *testing.T) {
	policy := auth.DefaultLockoutPolicy()

	attempts, lockUntil := policy.OnSuccess()
	assert.Equal(t, 0, attempts)
	assert.Nil(t, lockUntil)
}

func TestDefaultLockoutPolicy(t *testing.T) {
	policy := auth.DefaultLockoutPolicy()
	assert.Equal(t, 5, policy.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, policy.LockDuration)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
