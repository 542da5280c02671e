// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an account with the same normalized
// email already exists.
var ErrDuplicateEmail = errors.New("email already exists")

// Error codes attached to oops errors returned by this package. Callers map
// these to transport-specific failures; the strings are part of the package
// contract.
const (
	// CodeInvalidCredentials covers unknown email, wrong password and
	// inactive account. The three cases are deliberately indistinguishable
	// to prevent account enumeration.
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"

	// CodeAccountLocked is returned while the lockout window is active.
	CodeAccountLocked = "AUTH_ACCOUNT_LOCKED"

	// CodeEmailExists is returned on an account-creation uniqueness conflict.
	CodeEmailExists = "AUTH_EMAIL_EXISTS"

	// CodeSessionRevoked is returned when a token verifies but no live
	// session row backs it (logout or forced revocation).
	CodeSessionRevoked = "SESSION_REVOKED"

	// CodeAccountInactive is returned when a session is live but its owning
	// account has been deactivated since issuance.
	CodeAccountInactive = "ACCOUNT_INACTIVE"

	// CodeStoreUnavailable is returned for storage faults, timeouts and
	// cancellation. Never conflated with credential failures so operators
	// can tell outages from attacks.
	CodeStoreUnavailable = "AUTH_STORE_UNAVAILABLE"

	// Token-layer failure codes surfaced by TokenCodec.Verify.
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeTokenMalformed    = "TOKEN_MALFORMED"
	CodeTokenBadSignature = "TOKEN_BAD_SIGNATURE"
)
