// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import "time"

// Default lockout configuration.
const (
	// DefaultMaxFailedAttempts is the failure count that triggers a lockout.
	DefaultMaxFailedAttempts = 5

	// DefaultLockDuration is how long a locked account rejects all logins.
	DefaultLockDuration = 30 * time.Minute
)

// LockoutPolicy is the pure brute-force defense decision logic. It performs
// no I/O; the service persists its outputs through AccountRepository.
type LockoutPolicy struct {
	// MaxFailedAttempts is the counter value at which the lock engages.
	MaxFailedAttempts int

	// LockDuration is the length of the lockout window.
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns the 5-attempt, 30-minute policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockDuration:      DefaultLockDuration,
	}
}

// IsLocked returns true iff lockUntil is set and now is before it. An
// elapsed lockout window unlocks the account without any counter reset;
// the counter clears only on a successful login.
func (p LockoutPolicy) IsLocked(lockUntil *time.Time, now time.Time) bool {
	return lockUntil != nil && now.Before(*lockUntil)
}

// OnFailure computes the state after one more failed attempt. The lockout
// timestamp is set only on the attempt that reaches the threshold.
func (p LockoutPolicy) OnFailure(failedAttempts int, now time.Time) (int, *time.Time) {
	failedAttempts++
	if failedAttempts >= p.MaxFailedAttempts {
		until := now.Add(p.LockDuration)
		return failedAttempts, &until
	}
	return failedAttempts, nil
}

// OnSuccess returns the reset state after a successful login.
func (p LockoutPolicy) OnSuccess() (int, *time.Time) {
	return 0, nil
}
